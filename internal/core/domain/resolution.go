package domain

// IdentifierKind classifies a lookup identifier.
type IdentifierKind string

const (
	IdentifierEntryID IdentifierKind = "entry_id"
	IdentifierPhone   IdentifierKind = "phone"
	IdentifierUnknown IdentifierKind = "unknown"
)

// ResolvedProfile is one profile returned for an identifier.
type ResolvedProfile struct {
	Identifier      string         `json:"identifier"`
	Profile         ArtistProfile  `json:"profile"`
	FoundByAlias    bool           `json:"foundByAlias"`
	FoundByPhone    bool           `json:"foundByPhone"`
	ViaSupersession bool           `json:"viaSupersession"`
	SupersededFrom  []string       `json:"supersededFrom,omitempty"`
	AmbiguousWith   []string       `json:"ambiguousWith,omitempty"`
	Kind            IdentifierKind `json:"kind"`
}

// UnresolvedIdentifier is an identifier that matched nothing.
type UnresolvedIdentifier struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// BatchError records a failed lookup batch. Results of other batches are unaffected.
type BatchError struct {
	Identifiers []string `json:"identifiers"`
	Error       string   `json:"error"`
}

// ResolutionStats summarises a resolution run.
type ResolutionStats struct {
	Requested     int `json:"requested"`
	FoundDirect   int `json:"foundDirect"`
	FoundByAlias  int `json:"foundByAlias"`
	FoundByPhone  int `json:"foundByPhone"`
	NotFound      int `json:"notFound"`
	Ambiguous     int `json:"ambiguous"`
	FailedBatches int `json:"failedBatches"`
}

// ResolutionResult is the outcome of resolving a list of identifiers.
type ResolutionResult struct {
	Profiles    []ResolvedProfile      `json:"profiles"`
	NotFound    []UnresolvedIdentifier `json:"notFound"`
	BatchErrors []BatchError           `json:"batchErrors,omitempty"`
	Stats       ResolutionStats        `json:"stats"`
}

// Partial reports whether some lookups failed.
func (r ResolutionResult) Partial() bool {
	return len(r.BatchErrors) > 0
}
