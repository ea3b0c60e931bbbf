package models

import (
	"time"
)

// Direction is the outcome of a swipe.
type Direction string

const (
	DirectionLike Direction = "LIKE"
	DirectionPass Direction = "PASS"
)

// IsValid reports whether d is LIKE or PASS.
func (d Direction) IsValid() bool {
	return d == DirectionLike || d == DirectionPass
}

// SwipeEvent is an append-only record of one user swiping on another.
type SwipeEvent struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	ActorID   string    `gorm:"type:varchar(64);not null;index:idx_swipe_pair"`
	TargetID  string    `gorm:"type:varchar(64);not null;index:idx_swipe_pair;index"`
	Direction Direction `gorm:"type:varchar(8);not null;index:idx_swipe_pair"`
	CreatedAt time.Time `gorm:"index"`
}

func (SwipeEvent) TableName() string {
	return "swipe_events"
}
