// Package xp contains the gamification domain model: the level schedule,
// the task XP calculator, per-user XP state, and the append-only XP log.
// This is the core of the business logic - there are no external dependencies
// here beyond ID generation.
package xp

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrUserStateNotFound - no XP state exists for the user.
	ErrUserStateNotFound = errors.New("xp: user state not found")

	// ErrUserStateExists - XP state already provisioned for the user.
	ErrUserStateExists = errors.New("xp: user state already exists")

	// ErrInvalidUserID - empty or malformed user ID.
	ErrInvalidUserID = errors.New("xp: invalid user id")

	// ErrInvalidXP - negative XP total where a non-negative one is required.
	ErrInvalidXP = errors.New("xp: total must be non-negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// USER XP STATE
// ══════════════════════════════════════════════════════════════════════════════

// UserState is the per-user XP aggregate. CurrentXP is stored redundantly on
// the user record for fast reads; the log is an audit trail, never the source
// of truth.
//
// Invariant: CurrentLevel == LevelForXP(CurrentXP) after every mutation.
type UserState struct {
	// UserID - identifier of the user owning this state.
	UserID string

	// CurrentXP - cumulative experience points, never negative.
	CurrentXP int

	// CurrentLevel - level derived from CurrentXP, in [1, MaxLevel].
	CurrentLevel int

	// CreatedAt - when the state was provisioned.
	CreatedAt time.Time

	// UpdatedAt - last mutation time.
	UpdatedAt time.Time
}

// NewUserState provisions a fresh XP state: zero XP, level 1.
func NewUserState(userID string) (*UserState, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	now := time.Now().UTC()
	return &UserState{
		UserID:       userID,
		CurrentXP:    0,
		CurrentLevel: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate checks the aggregate's invariants.
func (s *UserState) Validate() error {
	if s.UserID == "" {
		return ErrInvalidUserID
	}
	if s.CurrentXP < 0 {
		return ErrInvalidXP
	}
	if s.CurrentLevel != LevelForXP(s.CurrentXP) {
		return fmt.Errorf("xp: level %d diverged from xp %d (want %d)",
			s.CurrentLevel, s.CurrentXP, LevelForXP(s.CurrentXP))
	}
	return nil
}

// String returns a compact representation for logging.
func (s *UserState) String() string {
	return fmt.Sprintf("UserState{User: %s, XP: %d, Level: %d}",
		s.UserID, s.CurrentXP, s.CurrentLevel)
}

// ══════════════════════════════════════════════════════════════════════════════
// XP LOG
// ══════════════════════════════════════════════════════════════════════════════

// SourceRetroactive is the log source recorded by the one-shot retroactive
// reconciliation. The exact string is part of the audit contract.
const SourceRetroactive = "Retroactive XP calculation"

// LogEntry is one immutable record in the append-only XP log.
// Entries are never updated or deleted.
type LogEntry struct {
	// ID - unique entry identifier.
	ID string

	// UserID - the user the XP was awarded to.
	UserID string

	// XPGained - the awarded amount. Any integer a caller computed,
	// including a retroactive batch total.
	XPGained int

	// Source - free-text label describing where the XP came from.
	Source string

	// CreatedAt - append time.
	CreatedAt time.Time
}

// NewLogEntry creates a log entry with a generated ID and the current time.
func NewLogEntry(userID string, xpGained int, source string) (LogEntry, error) {
	if userID == "" {
		return LogEntry{}, ErrInvalidUserID
	}
	if source == "" {
		source = "manual"
	}

	return LogEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		XPGained:  xpGained,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}, nil
}
