package http

import (
	"context"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

type readinessGroup []sharedobs.ReadinessChecker

// AllReady combines checkers into one that fails with the first failure.
func AllReady(checkers ...sharedobs.ReadinessChecker) sharedobs.ReadinessChecker {
	return readinessGroup(checkers)
}

func (g readinessGroup) CheckReadiness(ctx context.Context) error {
	for _, c := range g {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}
