package services

import (
	"context"

	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
)

// AliasResolverSvc resolves external artist numbers and phone numbers to artist profiles.
type AliasResolverSvc interface {
	// Resolve looks up every identifier directly, then through alias sets, then by phone.
	// Failed lookup batches are reported in the result, not as an error.
	Resolve(ctx context.Context, actor domain.Actor, identifiers []string) (*domain.ResolutionResult, error)
}

// IdentityReconcilerSvc merges duplicate persons and artist profiles.
type IdentityReconcilerSvc interface {
	// Merge supersedes every non-canonical record of the request in one transaction.
	Merge(ctx context.Context, actor domain.Actor, req domain.MergeRequest) (*domain.MergeResult, error)
}
