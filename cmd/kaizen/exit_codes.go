package main

import (
	"errors"
	"io/fs"
	"syscall"

	bolterrors "go.etcd.io/bbolt/errors"

	"github.com/brewandbeans/kaizen/internal/config"
)

// Exit codes let a process supervisor tell startup failures apart
const (
	ExitCodeSuccess         = 0
	ExitCodeGeneralError    = 1
	ExitCodePortConflict    = 2
	ExitCodeDBLocked        = 3
	ExitCodeConfigError     = 4
	ExitCodePermissionError = 5
)

type exitRule struct {
	code        int
	description string
	causes      []error
}

// exitRules are checked in order; the first rule with a matching cause wins
var exitRules = []exitRule{
	{ExitCodeConfigError, "Configuration error", []error{config.ErrInvalidConfig}},
	{ExitCodePortConflict, "Listen address already in use", []error{syscall.EADDRINUSE}},
	{ExitCodeDBLocked, "Database locked by another process", []error{bolterrors.ErrTimeout}},
	{ExitCodePermissionError, "Permission denied", []error{fs.ErrPermission, syscall.EACCES}},
}

func exitCodeFor(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	for _, rule := range exitRules {
		for _, cause := range rule.causes {
			if errors.Is(err, cause) {
				return rule.code
			}
		}
	}
	return ExitCodeGeneralError
}

func exitCodeDescription(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "Success"
	case ExitCodeGeneralError:
		return "General error"
	}
	for _, rule := range exitRules {
		if rule.code == code {
			return rule.description
		}
	}
	return "Unknown error"
}
