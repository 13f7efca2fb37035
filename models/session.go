package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SessionState is the lifecycle state of a draft session.
type SessionState string

const (
	StateLobby    SessionState = "LOBBY"
	StateBan      SessionState = "BAN"
	StateDraft    SessionState = "DRAFT"
	StateStarted  SessionState = "STARTED"
	StateFinished SessionState = "FINISHED"
)

// DraftingMode selects the drafting strategy for a session.
type DraftingMode string

const (
	ModeExclusivePool DraftingMode = "EXCLUSIVE_POOL"
	ModePicksOnly     DraftingMode = "PICKS_ONLY"
	ModePicksAndBans  DraftingMode = "PICKS_AND_BANS"
	ModeHomebrewDraft DraftingMode = "HOMEBREW_DRAFT"
)

// DraftingModes lists every supported mode, used for config validation.
var DraftingModes = []DraftingMode{
	ModeExclusivePool,
	ModePicksOnly,
	ModePicksAndBans,
	ModeHomebrewDraft,
}

// MaxPlayers caps the session roster.
const MaxPlayers = 8

// Session is one instance of the lobby → draft → started → finished workflow.
type Session struct {
	ID    string       `json:"id" gorm:"primaryKey"`
	Name  string       `json:"name" gorm:"not null"`
	Slug  string       `json:"slug" gorm:"index"`
	State SessionState `json:"state" gorm:"type:varchar(16);default:'LOBBY'"`

	// Turn is the cursor into the roster's turn-order space.
	Turn int `json:"turn" gorm:"default:0"`

	LobbyCreatedAt time.Time  `json:"lobby_created_at" gorm:"autoCreateTime"`
	FinishedAt     *time.Time `json:"finished_at,omitempty" gorm:"index"`

	Players  []SessionPlayer  `json:"players,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Settings *SessionSettings `json:"settings,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`

	Timestamps
}

// SessionPlayer is one player's seat in one session.
type SessionPlayer struct {
	SessionID string `json:"session_id" gorm:"primaryKey"`
	PlayerID  string `json:"player_id" gorm:"primaryKey"`

	// Faction is set once during drafting and immutable afterwards.
	Faction   string `json:"faction,omitempty"`
	Points    int    `json:"points" gorm:"default:0"`
	TurnOrder int    `json:"turn_order" gorm:"default:0"`

	// Factions is the player's currently-available pick pool.
	Factions datatypes.JSONSlice[string] `json:"factions,omitempty"`
	// Bans are the factions this player has banned (PICKS_AND_BANS only).
	Bans datatypes.JSONSlice[string] `json:"bans,omitempty"`

	// Homebrew draft resources. Position 0 means no seat drafted yet,
	// seats are numbered 1..playerCount.
	Position     int    `json:"position,omitempty" gorm:"default:0"`
	StrategyCard string `json:"strategy_card,omitempty"`

	Player Player `json:"player,omitempty" gorm:"foreignKey:PlayerID"`
}

// SessionSettings is the per-session configuration, mutable only in LOBBY.
type SessionSettings struct {
	SessionID string `json:"session_id" gorm:"primaryKey"`

	DraftingMode DraftingMode `json:"drafting_mode" gorm:"type:varchar(24);default:'EXCLUSIVE_POOL'"`

	// Enabled reference-data source pools.
	BaseGame        bool `json:"base_game" gorm:"default:true"`
	ProphecyOfKings bool `json:"prophecy_of_kings" gorm:"default:false"`
	DiscordantStars bool `json:"discordant_stars" gorm:"default:false"`
	Codex           bool `json:"codex" gorm:"default:false"`

	FactionsPerPlayer int `json:"factions_per_player" gorm:"default:3"`
	BansPerPlayer     int `json:"bans_per_player" gorm:"default:1"`
}

// Player is a global identity, independent of any one session.
type Player struct {
	ID   string `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
