package domain

// Person is a human identity. Exactly one non-superseded Person exists per real human
// once reconciliation has run over their duplicates.
type Person struct {
	PersonID       string   `json:"personID"`
	Name           string   `json:"name"`
	Phones         []string `json:"phones"`
	PhoneKeys      []string `json:"phoneKeys"`
	ExternalAuthID *string  `json:"externalAuthID,omitempty"`
	SupersededBy   *string  `json:"supersededBy,omitempty"`
	AuditFields
}

// IsSuperseded reports whether the person has been merged into another.
func (p Person) IsSuperseded() bool {
	return p.SupersededBy != nil
}

// HasAuthIdentity reports whether an external auth identity is attached.
func (p Person) HasAuthIdentity() bool {
	return p.ExternalAuthID != nil && *p.ExternalAuthID != ""
}

// RefreshPhoneKeys recomputes PhoneKeys from Phones.
func (p *Person) RefreshPhoneKeys() {
	keys := make([]string, 0, len(p.Phones))
	seen := make(map[string]struct{}, len(p.Phones))
	for _, phone := range p.Phones {
		key := PhoneKey(phone)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	p.PhoneKeys = keys
}

// SharesPhoneWith reports whether any phone key of p is also a phone key of other.
func (p Person) SharesPhoneWith(other Person) bool {
	for _, a := range p.PhoneKeys {
		for _, b := range other.PhoneKeys {
			if a == b {
				return true
			}
		}
	}
	return false
}
