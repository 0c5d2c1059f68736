package dto

import "github.com/SscSPs/artist_ledger_app/internal/core/domain"

// ResolveArtistsRequest lists identifiers to resolve: external artist numbers or phone numbers.
type ResolveArtistsRequest struct {
	Identifiers []string `json:"identifiers" binding:"required,min=1,max=500,dive,required,max=32"`
}

// MergeIdentitiesRequest defines the data needed to merge duplicate identities.
type MergeIdentitiesRequest struct {
	CanonicalPersonID        string   `json:"canonicalPersonID" binding:"required"`
	CanonicalArtistProfileID string   `json:"canonicalArtistProfileID" binding:"required"`
	AllPersonIDs             []string `json:"allPersonIDs" binding:"required,min=1,dive,required"`
	AllArtistProfileIDs      []string `json:"allArtistProfileIDs" binding:"required,min=1,dive,required"`
}

// ToMergeRequest converts the request DTO into a domain.MergeRequest.
func (r MergeIdentitiesRequest) ToMergeRequest() domain.MergeRequest {
	return domain.MergeRequest{
		CanonicalPersonID:        r.CanonicalPersonID,
		CanonicalArtistProfileID: r.CanonicalArtistProfileID,
		AllPersonIDs:             r.AllPersonIDs,
		AllArtistProfileIDs:      r.AllArtistProfileIDs,
	}
}

// ArtistProfileResponse defines the data returned for an artist profile.
type ArtistProfileResponse struct {
	ProfileID      string  `json:"profileID"`
	PersonID       string  `json:"personID"`
	EntryID        int64   `json:"entryID"`
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	AliasEntryIDs  []int64 `json:"aliasEntryIDs"`
	SupersededBy   *string `json:"supersededBy,omitempty"`
	HasPayoutSetup bool    `json:"hasPayoutSetup"`
}

// ToArtistProfileResponse converts a domain.ArtistProfile to ArtistProfileResponse DTO.
func ToArtistProfileResponse(p *domain.ArtistProfile) ArtistProfileResponse {
	aliases := p.AliasEntryIDs()
	if aliases == nil {
		aliases = []int64{}
	}
	return ArtistProfileResponse{
		ProfileID:      p.ProfileID,
		PersonID:       p.PersonID,
		EntryID:        p.EntryID,
		Name:           p.Name,
		Email:          p.Email,
		AliasEntryIDs:  aliases,
		SupersededBy:   p.SupersededBy,
		HasPayoutSetup: p.PayoutAccountID != nil,
	}
}

// ResolvedProfileResponse is one profile returned by an artist resolution.
type ResolvedProfileResponse struct {
	Identifier      string                `json:"identifier"`
	Profile         ArtistProfileResponse `json:"profile"`
	FoundByAlias    bool                  `json:"foundByAlias"`
	FoundByPhone    bool                  `json:"foundByPhone"`
	ViaSupersession bool                  `json:"viaSupersession"`
	SupersededFrom  []string              `json:"supersededFrom,omitempty"`
	AmbiguousWith   []string              `json:"ambiguousWith,omitempty"`
}

// ResolveArtistsResponse defines the response of an artist resolution.
type ResolveArtistsResponse struct {
	Profiles    []ResolvedProfileResponse     `json:"profiles"`
	NotFound    []domain.UnresolvedIdentifier `json:"notFound"`
	BatchErrors []domain.BatchError           `json:"batchErrors,omitempty"`
	Stats       domain.ResolutionStats        `json:"stats"`
	Partial     bool                          `json:"partial"`
}

// ToResolveArtistsResponse converts a domain.ResolutionResult to its DTO.
func ToResolveArtistsResponse(r *domain.ResolutionResult) ResolveArtistsResponse {
	resp := ResolveArtistsResponse{
		Profiles:    make([]ResolvedProfileResponse, 0, len(r.Profiles)),
		NotFound:    r.NotFound,
		BatchErrors: r.BatchErrors,
		Stats:       r.Stats,
		Partial:     r.Partial(),
	}
	if resp.NotFound == nil {
		resp.NotFound = []domain.UnresolvedIdentifier{}
	}
	for _, p := range r.Profiles {
		resp.Profiles = append(resp.Profiles, ResolvedProfileResponse{
			Identifier:      p.Identifier,
			Profile:         ToArtistProfileResponse(&p.Profile),
			FoundByAlias:    p.FoundByAlias,
			FoundByPhone:    p.FoundByPhone,
			ViaSupersession: p.ViaSupersession,
			SupersededFrom:  p.SupersededFrom,
			AmbiguousWith:   p.AmbiguousWith,
		})
	}
	return resp
}
