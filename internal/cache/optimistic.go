package cache

import (
	"context"

	"github.com/emircancapkan/karma-case/internal/logging"
)

// applyThenConfirm is the compensating-action pattern shared by every
// optimistic mutation: apply the local delta for immediate feedback,
// confirm remotely, roll the delta back if the backend refuses, and on
// success reconcile with an authoritative refetch. A failed refetch is
// tolerated because the confirmed optimistic state is already correct
// enough and the next successful fetch heals any divergence.
func applyThenConfirm(ctx context.Context, apply, rollback func(), confirm, reconcile func(context.Context) error) error {
	apply()

	if err := confirm(ctx); err != nil {
		rollback()
		return err
	}

	if reconcile != nil {
		if err := reconcile(ctx); err != nil {
			logging.FromContext(ctx).Warn("reconciling refetch failed", "error", err)
		}
	}
	return nil
}
