package models

// ArtistProfile is a row of the artist_profiles table.
type ArtistProfile struct {
	ProfileID       string  `db:"profile_id"`
	PersonID        string  `db:"person_id"`
	EntryID         int64   `db:"entry_id"`
	Name            string  `db:"name"`
	Email           string  `db:"email"`
	Aliases         []byte  `db:"aliases"` // JSONB, flat list or cluster list
	PayoutAccountID *string `db:"payout_account_id"`
	SupersededBy    *string `db:"superseded_by"`
	AuditFields
}
