package models

// Person is a row of the persons table.
type Person struct {
	PersonID       string   `db:"person_id"`
	Name           string   `db:"name"`
	Phones         []string `db:"phones"`
	PhoneKeys      []string `db:"phone_keys"`
	ExternalAuthID *string  `db:"external_auth_id"` // Nullable, unique
	SupersededBy   *string  `db:"superseded_by"`    // Nullable
	AuditFields
}
