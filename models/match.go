package models

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchStatusNotYetScheduled MatchStatus = "not_yet_scheduled"
	MatchStatusScheduled       MatchStatus = "scheduled"
	MatchStatusLive            MatchStatus = "live"
	MatchStatusPlayed          MatchStatus = "played"
)

// IsValid проверяет, что статус входит в ENUM match_status.
func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusNotYetScheduled, MatchStatusScheduled, MatchStatusLive, MatchStatusPlayed:
		return true
	}
	return false
}

// Stage - раунд сетки. Допустимые значения зависят от пола (см. brackets.Ladder).
type Stage string

const (
	StagePreliminary   Stage = "preliminary"
	StageQuarterFinals Stage = "quarter-finals"
	StageSemiFinals    Stage = "semi-finals"
	StageFinals        Stage = "finals"
)

// Slot - одна из двух позиций команды в матче.
type Slot string

const (
	SlotNone Slot = ""
	SlotA    Slot = "team_a"
	SlotB    Slot = "team_b"
)

// BracketKey идентифицирует одну сетку: чемпионат + вид спорта + пол.
type BracketKey struct {
	ChampionshipID int    `json:"championship_id"`
	SportType      string `json:"sport_type"`
	Gender         Gender `json:"gender"`
}

func (k BracketKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.ChampionshipID, k.SportType, k.Gender)
}

type Match struct {
	ID             int         `json:"id" db:"id"`
	ChampionshipID int         `json:"championship_id" db:"championship_id"`
	SportType      string      `json:"sport_type" db:"sport_type"`
	Gender         Gender      `json:"gender" db:"gender"`
	Stage          Stage       `json:"stage" db:"stage"`
	TeamAID        *int        `json:"team_a_id" db:"team_a_id"` // nil - слот ждет победителя предыдущего матча
	TeamBID        *int        `json:"team_b_id" db:"team_b_id"`
	Status         MatchStatus `json:"status" db:"status"`
	WinnerID       *int        `json:"winner_id" db:"winner_id"`
	NextMatchID    *int        `json:"next_match_id" db:"next_match_id"`
	FeederCount    int         `json:"feeder_count" db:"feeder_count"`
	ScoreA         *int        `json:"score_a,omitempty" db:"score_a"`
	ScoreB         *int        `json:"score_b,omitempty" db:"score_b"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

func (m *Match) Key() BracketKey {
	return BracketKey{ChampionshipID: m.ChampionshipID, SportType: m.SportType, Gender: m.Gender}
}

// HasTeam сообщает, занимает ли команда teamID один из слотов матча.
func (m *Match) HasTeam(teamID int) bool {
	return (m.TeamAID != nil && *m.TeamAID == teamID) || (m.TeamBID != nil && *m.TeamBID == teamID)
}

// IsPlaceholder - матч создан заранее и ждет победителей.
func (m *Match) IsPlaceholder() bool {
	return m.TeamAID == nil && m.TeamBID == nil
}

func (m *Match) Clone() *Match {
	c := *m
	c.TeamAID = cloneIntPtr(m.TeamAID)
	c.TeamBID = cloneIntPtr(m.TeamBID)
	c.WinnerID = cloneIntPtr(m.WinnerID)
	c.NextMatchID = cloneIntPtr(m.NextMatchID)
	c.ScoreA = cloneIntPtr(m.ScoreA)
	c.ScoreB = cloneIntPtr(m.ScoreB)
	return &c
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
