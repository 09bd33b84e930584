// Package gate decides, per integration-backed view, whether to render a
// placeholder or attempt the integration call.
//
// Every view moves through the same states:
//
//	Disabled -> (check passes) -> Misconfigured | Loading -> Ready | Error
//
// Disabled and Misconfigured are terminal for a render. Error may be retried
// by the user.
package gate

import (
	"context"
	"fmt"

	"github.com/brewandbeans/kaizen/internal/config"
)

// State of an integration-backed view
type State int

const (
	Disabled State = iota
	Misconfigured
	Loading
	Ready
	Error
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case Misconfigured:
		return "misconfigured"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Placeholder is the short title and sentence rendered instead of a feature
type Placeholder struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Requirement is a secondary condition with its own placeholder, checked
// after the gate itself is enabled.
type Requirement struct {
	Name        string
	Met         func(*config.Config) bool
	Placeholder Placeholder
}

// Gate governs one view
type Gate struct {
	Name string
	// Enabled reports whether the governing feature, service and UI toggle are on
	Enabled  func(*config.Config) bool
	Disabled Placeholder
	Requires []Requirement
	// Resolve derives runtime settings; an error means Misconfigured. Optional.
	Resolve       func(*config.Config) error
	Misconfigured Placeholder
}

// Decision is the outcome of Check
type Decision struct {
	Gate        string       `json:"gate"`
	State       State        `json:"-"`
	Placeholder *Placeholder `json:"placeholder,omitempty"`
	// Cause holds the resolve error for Misconfigured decisions
	Cause error `json:"-"`
}

// Allowed reports whether the integration call may be made
func (d Decision) Allowed() bool {
	return d.State == Loading
}

// Check evaluates the gate without calling the integration
func (g Gate) Check(cfg *config.Config) Decision {
	if g.Enabled == nil || !g.Enabled(cfg) {
		p := g.Disabled
		return Decision{Gate: g.Name, State: Disabled, Placeholder: &p}
	}
	for _, req := range g.Requires {
		if req.Met != nil && !req.Met(cfg) {
			p := req.Placeholder
			return Decision{Gate: g.Name, State: Disabled, Placeholder: &p}
		}
	}
	if g.Resolve != nil {
		if err := g.Resolve(cfg); err != nil {
			p := g.Misconfigured
			return Decision{Gate: g.Name, State: Misconfigured, Placeholder: &p, Cause: err}
		}
	}
	return Decision{Gate: g.Name, State: Loading}
}

// Recorder receives one observation per Run
type Recorder interface {
	RecordGateOutcome(gate, state string)
}

// Outcome is the result of Run
type Outcome[T any] struct {
	Decision
	Value T
	// Err is set in the Error state
	Err error
}

// Message is the inline text for Error outcomes
func (o Outcome[T]) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

type runOptions struct {
	recorder Recorder
}

// Option configures Run
type Option func(*runOptions)

// WithRecorder reports the final state of each Run
func WithRecorder(r Recorder) Option {
	return func(o *runOptions) { o.recorder = r }
}

// Run checks the gate and performs call only when the check passes. Errors
// and panics from call become the Error state; nothing escapes to the caller.
func Run[T any](ctx context.Context, g Gate, cfg *config.Config, call func(context.Context) (T, error), opts ...Option) (out Outcome[T]) {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	defer func() {
		if o.recorder != nil {
			o.recorder.RecordGateOutcome(g.Name, out.State.String())
		}
	}()

	out.Decision = g.Check(cfg)
	if !out.Allowed() {
		return out
	}

	value, err := invoke(ctx, call)
	if err != nil {
		out.State = Error
		out.Err = err
		return out
	}
	out.State = Ready
	out.Value = value
	return out
}

func invoke[T any](ctx context.Context, call func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("integration call panicked: %v", r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return value, err
	}
	return call(ctx)
}
