package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyBalance is the balance components for one currency. SalesEarned is the part of
// SaleCredits computed from sales rather than from ledger entries.
type CurrencyBalance struct {
	Currency      string          `json:"currency"`
	SaleCredits   decimal.Decimal `json:"saleCredits"`
	ManualCredits decimal.Decimal `json:"manualCredits"`
	ManualDebits  decimal.Decimal `json:"manualDebits"`
	PaymentDebits decimal.Decimal `json:"paymentDebits"`
	Balance       decimal.Decimal `json:"balance"`
	SalesEarned   decimal.Decimal `json:"salesEarned"`
	SalesCount    int             `json:"salesCount"`
	EntriesCount  int             `json:"entriesCount"`
}

// Recompute sets Balance from its components.
func (c *CurrencyBalance) Recompute() {
	c.Balance = c.SaleCredits.Add(c.ManualCredits).Sub(c.ManualDebits).Sub(c.PaymentDebits)
}

// ProfileMembership explains why a profile was included in a balance.
type ProfileMembership string

const (
	MembershipCanonical  ProfileMembership = "canonical"
	MembershipSuperseded ProfileMembership = "superseded"
	MembershipPhoneMatch ProfileMembership = "phone_match"
)

// BalanceProfile is a profile that contributed to a balance.
type BalanceProfile struct {
	ProfileID  string            `json:"profileID"`
	EntryID    int64             `json:"entryID"`
	Name       string            `json:"name"`
	Membership ProfileMembership `json:"membership"`
}

// BalanceGap is a part of the balance that could not be computed.
type BalanceGap struct {
	ProfileID string `json:"profileID,omitempty"`
	Source    string `json:"source"`
	Error     string `json:"error"`
}

// BalanceResult is the outstanding balance of one artist across their merged identity set.
type BalanceResult struct {
	CanonicalProfileID string            `json:"canonicalProfileID"`
	RequestedProfileID string            `json:"requestedProfileID"`
	Currency           string            `json:"currency"`
	Balance            decimal.Decimal   `json:"balance"`
	Currencies         []CurrencyBalance `json:"currencies"`
	HasMixedCurrencies bool              `json:"hasMixedCurrencies"`
	Profiles           []BalanceProfile  `json:"profiles"`
	UnmergedDuplicates []string          `json:"unmergedDuplicates,omitempty"`
	Inconsistencies    []string          `json:"inconsistencies,omitempty"`
	Gaps               []BalanceGap      `json:"gaps,omitempty"`
	ComputedAt         time.Time         `json:"computedAt"`
}

// Partial reports whether some inputs could not be read.
func (b BalanceResult) Partial() bool {
	return len(b.Gaps) > 0
}

// BalanceIn returns the balance held in currency, or zero.
func (b BalanceResult) BalanceIn(currency string) decimal.Decimal {
	for _, c := range b.Currencies {
		if c.Currency == currency {
			return c.Balance
		}
	}
	return decimal.Zero
}

// ProfileIDs returns every contributing profile id.
func (b BalanceResult) ProfileIDs() []string {
	ids := make([]string, 0, len(b.Profiles))
	for _, p := range b.Profiles {
		ids = append(ids, p.ProfileID)
	}
	return ids
}

// StatementLineKind classifies a statement line.
type StatementLineKind string

const (
	LineSaleCredit    StatementLineKind = "sale_credit"
	LineUnsoldArtwork StatementLineKind = "unsold_artwork"
	LineCredit        StatementLineKind = "credit"
	LineDebit         StatementLineKind = "debit"
	LinePayment       StatementLineKind = "payment"
)

// StatementLine is one chronological entry of an artist statement.
type StatementLine struct {
	Date           time.Time         `json:"date"`
	Kind           StatementLineKind `json:"kind"`
	Description    string            `json:"description"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	RunningBalance decimal.Decimal   `json:"runningBalance"`
	ProfileID      string            `json:"profileID"`
	Reference      string            `json:"reference,omitempty"`
	ArtCode        string            `json:"artCode,omitempty"`
	EventName      string            `json:"eventName,omitempty"`
}

// Statement is the chronological account history of an artist.
type Statement struct {
	Balance BalanceResult   `json:"balance"`
	Lines   []StatementLine `json:"lines"`
}
