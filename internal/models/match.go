package models

import (
	"time"

	"github.com/mroshb/match_engine/pkg/errors"
)

// Match is the single record created when two users like each other. Its ID
// is derived from the unordered pair, so both participants compute the same
// key and the ID doubles as the uniqueness constraint.
type Match struct {
	ID        string    `gorm:"primaryKey;type:varchar(140)"`
	UserA     string    `gorm:"type:varchar(64);not null;index"`
	UserB     string    `gorm:"type:varchar(64);not null;index"`
	State     string    `gorm:"type:varchar(20);default:'active';index"`
	CreatedAt time.Time `gorm:"index"`
}

// Match state constants
const (
	MatchStateActive    = "active"
	MatchStateUnmatched = "unmatched"
)

const matchIDSeparator = "_"

func (Match) TableName() string {
	return "matches"
}

// CanonicalPair orders two user ids lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// MatchID returns the deterministic match id for the unordered pair {a, b}.
// MatchID(a, b) == MatchID(b, a) for all inputs. Distinct pairs of valid user
// ids (see ValidateUserID) never share an id because the separator cannot
// occur inside a user id.
func MatchID(a, b string) string {
	first, second := CanonicalPair(a, b)
	return first + matchIDSeparator + second
}

// NewMatch builds an active match for the pair with canonical ordering.
func NewMatch(a, b string, now time.Time) (*Match, error) {
	if err := ValidateUserID(a); err != nil {
		return nil, err
	}
	if err := ValidateUserID(b); err != nil {
		return nil, err
	}
	if a == b {
		return nil, errors.New(errors.ErrCodeValidation, "cannot match a user with themselves")
	}

	first, second := CanonicalPair(a, b)
	return &Match{
		ID:        MatchID(first, second),
		UserA:     first,
		UserB:     second,
		State:     MatchStateActive,
		CreatedAt: now,
	}, nil
}

// Involves reports whether userID participates in the match.
func (m *Match) Involves(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}

// Other returns the participant that is not userID.
func (m *Match) Other(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// OutcomeKind classifies the result of recording a swipe.
type OutcomeKind int

const (
	OutcomeNoMatch OutcomeKind = iota
	OutcomeNewMatch
	OutcomeAlreadyMatched
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNewMatch:
		return "new_match"
	case OutcomeAlreadyMatched:
		return "already_matched"
	default:
		return "no_match"
	}
}

// MatchOutcome is NoMatch, NewMatch(match) or AlreadyMatched(match).
type MatchOutcome struct {
	Kind  OutcomeKind
	Match *Match
}

func NoMatch() MatchOutcome {
	return MatchOutcome{Kind: OutcomeNoMatch}
}

func NewMatchOutcome(m *Match) MatchOutcome {
	return MatchOutcome{Kind: OutcomeNewMatch, Match: m}
}

func AlreadyMatched(m *Match) MatchOutcome {
	return MatchOutcome{Kind: OutcomeAlreadyMatched, Match: m}
}

// Matched reports whether the pair is matched after the swipe.
func (o MatchOutcome) Matched() bool {
	return o.Kind != OutcomeNoMatch
}
