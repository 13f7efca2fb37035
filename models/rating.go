package models

import "time"

// DefaultRating is the rating assigned the first time a player is rated.
const DefaultRating = 1500

// MatchPlayer holds the current skill rating for a player, created lazily
// the first time the player appears in a recorded match.
type MatchPlayer struct {
	PlayerID string  `json:"player_id" gorm:"primaryKey"`
	Name     string  `json:"name"`
	Rating   float64 `json:"rating" gorm:"default:1500"`
}

// OutcomeLedger is the append-only bookkeeping table guarding rating
// updates. At most one row per (session, player); rows are inserted,
// never updated or deleted.
type OutcomeLedger struct {
	SessionID string `json:"session_id" gorm:"primaryKey"`
	PlayerID  string `json:"player_id" gorm:"primaryKey"`

	MatchTime time.Time `json:"match_time"`

	RatingBefore float64 `json:"rating_before"`
	RatingDelta  float64 `json:"rating_delta"`
	RatingAfter  float64 `json:"rating_after"`
}
