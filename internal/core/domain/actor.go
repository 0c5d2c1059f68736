package domain

import (
	"fmt"

	"github.com/SscSPs/artist_ledger_app/internal/apperrors"
)

// AdminLevel is the privilege tier of an authenticated operator.
type AdminLevel string

const (
	LevelNone     AdminLevel = ""
	LevelViewer   AdminLevel = "viewer"
	LevelProducer AdminLevel = "producer"
	LevelAdmin    AdminLevel = "admin"
	LevelSuper    AdminLevel = "super"
)

var levelRank = map[AdminLevel]int{
	LevelNone:     0,
	LevelViewer:   1,
	LevelProducer: 2,
	LevelAdmin:    3,
	LevelSuper:    4,
}

// ParseAdminLevel maps a claim value to a level. Unknown values grant nothing.
func ParseAdminLevel(s string) AdminLevel {
	l := AdminLevel(s)
	if _, ok := levelRank[l]; ok {
		return l
	}
	return LevelNone
}

// AtLeast reports whether l grants at least min.
func (l AdminLevel) AtLeast(min AdminLevel) bool {
	return levelRank[l] >= levelRank[min]
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string     `json:"userID"`
	Level  AdminLevel `json:"level"`
}

// RequireLevel returns a forbidden error unless actor holds at least min.
func RequireLevel(actor Actor, min AdminLevel) error {
	if actor.UserID == "" {
		return fmt.Errorf("%w: no authenticated actor", apperrors.ErrUnauthorized)
	}
	if !actor.Level.AtLeast(min) {
		return fmt.Errorf("%w: %s level required", apperrors.ErrForbidden, min)
	}
	return nil
}
