package sheets

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by Disabled for every write.
var ErrNotConfigured = errors.New("google service account is not configured")

// Disabled stands in for Writer when no credentials are configured, so a
// run still fetches and stores data and reports every export as failed.
type Disabled struct{}

func (Disabled) UpdateValues(context.Context, string, string, [][]any) error {
	return ErrNotConfigured
}
