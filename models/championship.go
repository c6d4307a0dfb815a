package models

import "time"

// ChampionshipStatus соответствует ENUM championship_status в БД.
type ChampionshipStatus string

const (
	ChampionshipStatusUpcoming  ChampionshipStatus = "upcoming"
	ChampionshipStatusOngoing   ChampionshipStatus = "ongoing"
	ChampionshipStatusCompleted ChampionshipStatus = "completed"
)

// Championship - школьный чемпионат. Создается извне, движок только читает его.
type Championship struct {
	ID        int                `json:"id" db:"id"`
	Name      string             `json:"name" db:"name"`
	Status    ChampionshipStatus `json:"status" db:"status"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`
}
