package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
	"github.com/SscSPs/artist_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/artist_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/artist_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/artist_ledger_app/internal/metrics"
)

type identityReconcilerService struct {
	BaseService
	identityRepo portsrepo.IdentityRepositoryFacade
}

// NewIdentityReconcilerService creates the identity merge service.
func NewIdentityReconcilerService(repo portsrepo.IdentityRepositoryFacade, options ...ServiceOption) portssvc.IdentityReconcilerSvc {
	svc := &identityReconcilerService{identityRepo: repo}
	applyBaseOptions(&svc.BaseService, options)
	return svc
}

var _ portssvc.IdentityReconcilerSvc = (*identityReconcilerService)(nil)

func (s *identityReconcilerService) Merge(ctx context.Context, actor domain.Actor, req domain.MergeRequest) (*domain.MergeResult, error) {
	if err := s.AuthorizeActor(ctx, actor, domain.LevelAdmin); err != nil {
		metrics.Merges.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if err := req.Validate(); err != nil {
		metrics.Merges.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	logger := s.GetLogger(ctx).With(
		slog.String("canonical_person_id", req.CanonicalPersonID),
		slog.String("canonical_profile_id", req.CanonicalArtistProfileID))

	persons, err := s.loadPersons(ctx, req.AllPersonIDs)
	if err != nil {
		metrics.Merges.WithLabelValues("rejected").Inc()
		return nil, err
	}
	profiles, err := s.loadProfiles(ctx, req.AllArtistProfileIDs)
	if err != nil {
		metrics.Merges.WithLabelValues("rejected").Inc()
		return nil, err
	}

	canonicalPerson := persons[req.CanonicalPersonID]
	canonicalProfile := profiles[req.CanonicalArtistProfileID]
	if err := checkOutsideSupersession("person", canonicalPerson.PersonID, canonicalPerson.SupersededBy, req.AllPersonIDs); err != nil {
		metrics.Merges.WithLabelValues("conflict").Inc()
		return nil, err
	}
	if err := checkOutsideSupersession("artist profile", canonicalProfile.ProfileID, canonicalProfile.SupersededBy, req.AllArtistProfileIDs); err != nil {
		metrics.Merges.WithLabelValues("conflict").Inc()
		return nil, err
	}

	plan := domain.MergePlan{
		Request: req,
		ActorID: actor.UserID,
		At:      s.Now(),
	}
	applied, err := s.identityRepo.ApplyMerge(ctx, plan)
	if err != nil {
		var partial *apperrors.PartialFailureError
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			metrics.Merges.WithLabelValues("conflict").Inc()
			logger.Warn("Merge rejected, another merge is in flight", slog.String("error", err.Error()))
		case errors.As(err, &partial):
			metrics.Merges.WithLabelValues("partial_failure").Inc()
			logger.Error("Merge rolled back", slog.String("error", err.Error()))
		default:
			metrics.Merges.WithLabelValues("partial_failure").Inc()
			logger.Error("Merge failed", slog.String("error", err.Error()))
			err = &apperrors.PartialFailureError{Operation: "merge", Steps: unknownMergeSteps(err), Err: err}
		}
		return nil, err
	}
	changes, auth := &applied.Changes, applied.Auth

	var notes []string
	switch auth.Source {
	case domain.AuthFromPhoneMatch:
		notes = append(notes, fmt.Sprintf("auth identity moved from person %s by phone match", auth.DonorID))
	case domain.AuthIdentityAbsent:
		notes = append(notes, "no auth identity found; canonical person left without one")
	}
	for _, id := range auth.Dropped {
		notes = append(notes, fmt.Sprintf("auth identity of person %s cleared without a phone match", id))
	}

	result := &domain.MergeResult{
		CanonicalPersonID:        req.CanonicalPersonID,
		CanonicalArtistProfileID: req.CanonicalArtistProfileID,
		AuthIdentitySource:       auth.Source,
		Changes:                  *changes,
		Steps:                    mergeStepSummaries(req, auth, *changes),
		Notes:                    notes,
		NoOp:                     changes.Total() == 0,
	}

	outcome := "applied"
	if result.NoOp {
		outcome = "noop"
	}
	metrics.Merges.WithLabelValues(outcome).Inc()
	logger.Info("Identity merge completed",
		slog.Bool("no_op", result.NoOp),
		slog.Int("profiles_repointed", changes.ProfilesRepointed),
		slog.Int("profiles_superseded", changes.ProfilesSuperseded),
		slog.Int("persons_superseded", changes.PersonsSuperseded),
		slog.String("auth_source", string(auth.Source)))
	return result, nil
}

func (s *identityReconcilerService) loadPersons(ctx context.Context, ids []string) (map[string]domain.Person, error) {
	found, err := s.identityRepo.FindPersonsByIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load persons for merge")
		return nil, fmt.Errorf("failed to load persons: %w", err)
	}
	byID := make(map[string]domain.Person, len(found))
	for _, p := range found {
		byID[p.PersonID] = p
	}
	if missing := missingIDs(ids, func(id string) bool { _, ok := byID[id]; return ok }); len(missing) > 0 {
		return nil, fmt.Errorf("%w: persons %s", apperrors.ErrNotFound, strings.Join(missing, ", "))
	}
	return byID, nil
}

func (s *identityReconcilerService) loadProfiles(ctx context.Context, ids []string) (map[string]domain.ArtistProfile, error) {
	found, err := s.identityRepo.FindProfilesByIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load artist profiles for merge")
		return nil, fmt.Errorf("failed to load artist profiles: %w", err)
	}
	byID := make(map[string]domain.ArtistProfile, len(found))
	for _, p := range found {
		byID[p.ProfileID] = p
	}
	if missing := missingIDs(ids, func(id string) bool { _, ok := byID[id]; return ok }); len(missing) > 0 {
		return nil, fmt.Errorf("%w: artist profiles %s", apperrors.ErrNotFound, strings.Join(missing, ", "))
	}
	return byID, nil
}

// checkOutsideSupersession refuses to revive a canonical record that was merged into
// something outside the current merge set.
func checkOutsideSupersession(kind, id string, supersededBy *string, set []string) error {
	if supersededBy == nil {
		return nil
	}
	for _, member := range set {
		if member == *supersededBy {
			return nil
		}
	}
	return fmt.Errorf("%w: canonical %s %s is already superseded by %s, which is not part of this merge", apperrors.ErrConflict, kind, id, *supersededBy)
}

func mergeStepSummaries(req domain.MergeRequest, auth domain.AuthResolution, c domain.MergeChanges) []domain.MergeStepResult {
	others := len(req.OtherArtistProfileIDs())
	summary := "no auth identity to attach"
	switch auth.Source {
	case domain.AuthFromCanonical:
		summary = "canonical person keeps its auth identity"
	case domain.AuthFromPhoneMatch:
		summary = fmt.Sprintf("auth identity taken from person %s", auth.DonorID)
	}
	attach := "nothing attached"
	if c.AuthIdentityAttached {
		attach = "auth identity attached to canonical person"
	} else if auth.IdentityID != nil {
		attach = "auth identity already attached"
	}
	return []domain.MergeStepResult{
		{Step: domain.MergeStepRepointCanonicalProfile, Summary: fmt.Sprintf("canonical profile owned by person %s", req.CanonicalPersonID)},
		{Step: domain.MergeStepRepointOtherProfiles, Summary: fmt.Sprintf("%d of %d profiles re-pointed", c.ProfilesRepointed, len(req.AllArtistProfileIDs))},
		{Step: domain.MergeStepSupersedeProfiles, Summary: fmt.Sprintf("%d of %d duplicate profiles newly superseded", c.ProfilesSuperseded, others)},
		{Step: domain.MergeStepResolveAuthIdentity, Summary: summary},
		{Step: domain.MergeStepAttachAuthIdentity, Summary: attach},
		{Step: domain.MergeStepSupersedePersons, Summary: fmt.Sprintf("%d of %d duplicate persons newly superseded, %d auth identities cleared", c.PersonsSuperseded, len(req.OtherPersonIDs()), c.AuthIdentitiesCleared)},
	}
}

func unknownMergeSteps(err error) []apperrors.StepStatus {
	steps := make([]apperrors.StepStatus, 0, len(domain.MergeSteps))
	for _, step := range domain.MergeSteps {
		steps = append(steps, apperrors.StepStatus{Step: step, State: apperrors.StepRolledBack, Reason: err.Error()})
	}
	return steps
}

func missingIDs(ids []string, present func(string) bool) []string {
	var missing []string
	for _, id := range ids {
		if !present(id) {
			missing = append(missing, id)
		}
	}
	return missing
}
