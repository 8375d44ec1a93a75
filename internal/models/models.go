package models

import (
	"database/sql"
	"time"
)

// Account represents a registered user in the system
type Account struct {
	ID           int            `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	PasswordHash string         `db:"password_hash" json:"-"`
	DisplayName  string         `db:"display_name" json:"display_name"`
	Locale       string         `db:"locale" json:"locale"`
	TrustLevel   string         `db:"trust_level" json:"trust_level"`
	IsApproved   bool           `db:"is_approved" json:"is_approved"`
	IsBlocked    bool           `db:"is_blocked" json:"is_blocked"`
	BlockReason  sql.NullString `db:"block_reason" json:"block_reason,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	LastSeen     sql.NullTime   `db:"last_seen" json:"last_seen,omitempty"`
}

// Preference holds a single account's client option snapshot
type Preference struct {
	AccountID int       `db:"account_id" json:"account_id"`
	Options   []byte    `db:"options" json:"options"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SavedTable is a persisted game snapshot the owner can resume later
type SavedTable struct {
	ID          int       `db:"id" json:"id"`
	OwnerID     int       `db:"owner_id" json:"owner_id"`
	GameType    string    `db:"game_type" json:"game_type"`
	Snapshot    []byte    `db:"snapshot" json:"snapshot"`
	SavedAtTick int64     `db:"saved_at_tick" json:"saved_at_tick"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// GameResult records one finished game
type GameResult struct {
	ID            int       `db:"id" json:"id"`
	GameType      string    `db:"game_type" json:"game_type"`
	DurationTicks int64     `db:"duration_ticks" json:"duration_ticks"`
	PlayerResults []byte    `db:"player_results" json:"player_results"`
	CustomData    []byte    `db:"custom_data" json:"custom_data"`
	FinishedAt    time.Time `db:"finished_at" json:"finished_at"`
}
