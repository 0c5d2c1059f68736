package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
)

// Merge step names, in the order they are applied.
const (
	MergeStepRepointCanonicalProfile = "repoint_canonical_profile"
	MergeStepRepointOtherProfiles    = "repoint_other_profiles"
	MergeStepSupersedeProfiles       = "supersede_profiles"
	MergeStepResolveAuthIdentity     = "resolve_auth_identity"
	MergeStepAttachAuthIdentity      = "attach_auth_identity"
	MergeStepSupersedePersons        = "supersede_persons"
)

// MergeSteps lists the merge steps in application order.
var MergeSteps = []string{
	MergeStepRepointCanonicalProfile,
	MergeStepRepointOtherProfiles,
	MergeStepSupersedeProfiles,
	MergeStepResolveAuthIdentity,
	MergeStepAttachAuthIdentity,
	MergeStepSupersedePersons,
}

// MergeStepStatuses reports a merge that stopped at failed: earlier steps were rolled back
// and later steps never ran.
func MergeStepStatuses(failed, reason string) []apperrors.StepStatus {
	statuses := make([]apperrors.StepStatus, 0, len(MergeSteps))
	state := apperrors.StepRolledBack
	for _, name := range MergeSteps {
		if name == failed {
			statuses = append(statuses, apperrors.StepStatus{Step: name, State: apperrors.StepFailed, Reason: reason})
			state = apperrors.StepSkipped
			continue
		}
		statuses = append(statuses, apperrors.StepStatus{Step: name, State: state})
	}
	return statuses
}

// MergeRequest names the surviving records and every record that takes part in the merge.
type MergeRequest struct {
	CanonicalPersonID        string   `json:"canonicalPersonID"`
	CanonicalArtistProfileID string   `json:"canonicalArtistProfileID"`
	AllPersonIDs             []string `json:"allPersonIDs"`
	AllArtistProfileIDs      []string `json:"allArtistProfileIDs"`
}

// Validate checks the structural preconditions of a merge.
func (r MergeRequest) Validate() error {
	if strings.TrimSpace(r.CanonicalPersonID) == "" {
		return fmt.Errorf("canonical person id is required")
	}
	if strings.TrimSpace(r.CanonicalArtistProfileID) == "" {
		return fmt.Errorf("canonical artist profile id is required")
	}
	if err := checkIDList("person", r.AllPersonIDs); err != nil {
		return err
	}
	if err := checkIDList("artist profile", r.AllArtistProfileIDs); err != nil {
		return err
	}
	if !containsString(r.AllPersonIDs, r.CanonicalPersonID) {
		return fmt.Errorf("canonical person %s is not in the person set", r.CanonicalPersonID)
	}
	if !containsString(r.AllArtistProfileIDs, r.CanonicalArtistProfileID) {
		return fmt.Errorf("canonical artist profile %s is not in the profile set", r.CanonicalArtistProfileID)
	}
	return nil
}

// OtherPersonIDs returns the non-canonical person ids.
func (r MergeRequest) OtherPersonIDs() []string {
	return without(r.AllPersonIDs, r.CanonicalPersonID)
}

// OtherArtistProfileIDs returns the non-canonical profile ids.
func (r MergeRequest) OtherArtistProfileIDs() []string {
	return without(r.AllArtistProfileIDs, r.CanonicalArtistProfileID)
}

// AuthIdentitySource tells where the attached auth identity came from.
type AuthIdentitySource string

const (
	AuthFromCanonical  AuthIdentitySource = "canonical_person"
	AuthFromPhoneMatch AuthIdentitySource = "phone_match"
	AuthIdentityAbsent AuthIdentitySource = "none"
)

// MergePlan is a validated merge ready to be applied atomically by the store.
type MergePlan struct {
	Request MergeRequest
	ActorID string
	At      time.Time
}

// AuthResolution decides which external auth identity the canonical person ends up with.
type AuthResolution struct {
	IdentityID *string
	Source     AuthIdentitySource
	DonorID    string
	// Dropped lists other persons whose auth identity is cleared rather than moved.
	Dropped []string
}

// ResolveAuthIdentity picks the external auth identity for the canonical person: its own,
// else one held by another person in the set whose phone matches a variant of a canonical
// phone. The most recently updated donor wins; ties go to the lowest id.
func ResolveAuthIdentity(canonical Person, persons map[string]Person, others []string) AuthResolution {
	res := AuthResolution{Source: AuthIdentityAbsent}
	if canonical.HasAuthIdentity() {
		id := *canonical.ExternalAuthID
		res.IdentityID, res.Source = &id, AuthFromCanonical
	} else if donor, ok := phoneMatchedDonor(canonical, persons, others); ok {
		id := *donor.ExternalAuthID
		res.IdentityID, res.Source, res.DonorID = &id, AuthFromPhoneMatch, donor.PersonID
	}

	for _, id := range others {
		if p := persons[id]; p.HasAuthIdentity() && id != res.DonorID {
			res.Dropped = append(res.Dropped, id)
		}
	}
	return res
}

func phoneMatchedDonor(canonical Person, persons map[string]Person, others []string) (Person, bool) {
	variants := make(map[string]bool)
	for _, phone := range canonical.Phones {
		for _, v := range PhoneVariants(phone) {
			variants[v] = true
		}
	}
	if len(variants) == 0 {
		return Person{}, false
	}

	var donors []Person
	for _, id := range others {
		p := persons[id]
		if !p.HasAuthIdentity() {
			continue
		}
		for _, phone := range p.Phones {
			if variants[phone] || variants[NormalizePhone(phone)] || variants["+"+NormalizePhone(phone)] {
				donors = append(donors, p)
				break
			}
		}
	}
	if len(donors) == 0 {
		return Person{}, false
	}
	sort.SliceStable(donors, func(i, j int) bool {
		if !donors[i].LastUpdatedAt.Equal(donors[j].LastUpdatedAt) {
			return donors[i].LastUpdatedAt.After(donors[j].LastUpdatedAt)
		}
		return donors[i].PersonID < donors[j].PersonID
	})
	return donors[0], true
}

// MergeChanges counts the rows each step touched.
type MergeChanges struct {
	ProfilesRepointed     int  `json:"profilesRepointed"`
	ProfilesSuperseded    int  `json:"profilesSuperseded"`
	PersonsSuperseded     int  `json:"personsSuperseded"`
	AuthIdentitiesCleared int  `json:"authIdentitiesCleared"`
	AuthIdentityAttached  bool `json:"authIdentityAttached"`
}

// Total returns how many rows changed overall.
func (c MergeChanges) Total() int {
	n := c.ProfilesRepointed + c.ProfilesSuperseded + c.PersonsSuperseded + c.AuthIdentitiesCleared
	if c.AuthIdentityAttached {
		n++
	}
	return n
}

// AppliedMerge is what the store did while applying a merge plan. Auth is resolved from
// the persons as read inside the store's lock.
type AppliedMerge struct {
	Changes MergeChanges
	Auth    AuthResolution
}

// MergeResult reports the outcome of a merge per step.
type MergeResult struct {
	CanonicalPersonID        string             `json:"canonicalPersonID"`
	CanonicalArtistProfileID string             `json:"canonicalArtistProfileID"`
	AuthIdentitySource       AuthIdentitySource `json:"authIdentitySource"`
	Changes                  MergeChanges       `json:"changes"`
	Steps                    []MergeStepResult  `json:"steps"`
	Notes                    []string           `json:"notes,omitempty"`
	NoOp                     bool               `json:"noOp"`
}

// MergeStepResult is the human-readable outcome of one step.
type MergeStepResult struct {
	Step    string `json:"step"`
	Summary string `json:"summary"`
}

func checkIDList(kind string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("at least one %s id is required", kind)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("blank %s id", kind)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate %s id %s", kind, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func without(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
