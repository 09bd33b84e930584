package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brewandbeans/kaizen/internal/config"
)

// OpenStatusURL is the uptime monitor endpoint
const OpenStatusURL = "https://api.openstatus.dev"

// Monitor defaults
var (
	MonitorRegions  = []string{"us-east-1", "eu-west-1"}
	MonitorInterval = 60000 // ms
)

// MonitorRequest describes a check to create
type MonitorRequest struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Regions     []string `json:"regions"`
	Interval    int      `json:"interval"`
}

// OpenStatusClient creates uptime monitors
type OpenStatusClient struct {
	*client
}

// NewOpenStatus creates a monitor client
func NewOpenStatus(cfg *config.OpenStatusConfig, opts ...Option) *OpenStatusClient {
	key := cfg.APIKey
	auth := func(req *http.Request) { req.Header.Set("x-openstatus-key", key) }
	return &OpenStatusClient{client: newClient("openstatus", OpenStatusURL, auth, opts)}
}

// CreateMonitor registers a multi-region check and returns the raw response
func (c *OpenStatusClient) CreateMonitor(ctx context.Context, name, url, description string) (json.RawMessage, error) {
	if description == "" {
		description = "Monitor for " + name
	}
	req := MonitorRequest{
		Name:        name,
		URL:         url,
		Description: description,
		Regions:     MonitorRegions,
		Interval:    MonitorInterval,
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/v1/check", req, &out); err != nil {
		return nil, fmt.Errorf("failed to create monitor: %w", err)
	}
	return out, nil
}
