package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/repositories"
)

// IntegrityService - аудитор сетки. Только читает и ничего не исправляет.
type IntegrityService interface {
	// CheckIntegrity возвращает список найденных нарушений; пустой список - сетка в порядке.
	// Ошибка возвращается только при сбое хранилища или неверном ключе сетки.
	CheckIntegrity(ctx context.Context, key models.BracketKey) ([]string, error)
}

type integrityService struct {
	matchRepo repositories.MatchRepository
	logger    *slog.Logger
}

func NewIntegrityService(matchRepo repositories.MatchRepository, logger *slog.Logger) IntegrityService {
	return &integrityService{matchRepo: matchRepo, logger: logger}
}

func (s *integrityService) CheckIntegrity(ctx context.Context, key models.BracketKey) ([]string, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	// Финалы и фидеры считаются из той же выборки.
	matches, err := s.matchRepo.ListByBracket(ctx, key, repositories.MatchFilter{})
	if err != nil {
		return nil, fmt.Errorf("integrity check of bracket %s: failed to list matches: %w", key, err)
	}
	finals, feeders := finalsAndFeeders(matches)

	issues := make([]string, 0)
	issues = append(issues, checkSingleFinal(key, finals)...)
	issues = append(issues, checkFeederLimit(feeders)...)
	issues = append(issues, checkFinalHasNoNext(finals)...)
	issues = append(issues, checkWinners(matches)...)
	issues = append(issues, checkFeederCounters(matches, feeders)...)

	if len(issues) > 0 {
		s.logger.Debug("bracket integrity issues found", slog.String("bracket", key.String()), slog.Int("count", len(issues)))
	}
	return issues, nil
}

// finalsAndFeeders выделяет финалы и считает, сколько матчей сетки ссылаются на каждый матч.
func finalsAndFeeders(matches []*models.Match) ([]*models.Match, map[int]int) {
	var finals []*models.Match
	feeders := make(map[int]int)
	for _, m := range matches {
		if m.Stage == models.StageFinals {
			finals = append(finals, m)
		}
		if m.NextMatchID != nil {
			feeders[*m.NextMatchID]++
		}
	}
	return finals, feeders
}

func checkSingleFinal(key models.BracketKey, finals []*models.Match) []string {
	if len(finals) <= 1 {
		return nil
	}
	ids := make([]int, 0, len(finals))
	for _, f := range finals {
		ids = append(ids, f.ID)
	}
	return []string{fmt.Sprintf("bracket %s has %d finals matches %v, expected at most one", key, len(finals), ids)}
}

func checkFeederLimit(feeders map[int]int) []string {
	var issues []string
	for _, id := range sortedIDs(feeders) {
		if n := feeders[id]; n > 2 {
			issues = append(issues, fmt.Sprintf("match %d has %d feeder matches, expected at most two", id, n))
		}
	}
	return issues
}

func checkFinalHasNoNext(finals []*models.Match) []string {
	var issues []string
	for _, f := range finals {
		if f.NextMatchID != nil {
			issues = append(issues, fmt.Sprintf("finals match %d has next_match_id %d, expected none", f.ID, *f.NextMatchID))
		}
	}
	return issues
}

func checkWinners(matches []*models.Match) []string {
	var issues []string
	for _, m := range matches {
		if m.WinnerID == nil {
			continue
		}
		if m.Status != models.MatchStatusPlayed {
			issues = append(issues, fmt.Sprintf("match %d has winner %d but status %s", m.ID, *m.WinnerID, m.Status))
		}
		if m.TeamAID == nil || m.TeamBID == nil {
			issues = append(issues, fmt.Sprintf("match %d has winner %d but is missing an opponent", m.ID, *m.WinnerID))
		}
		if !m.HasTeam(*m.WinnerID) {
			issues = append(issues, fmt.Sprintf("match %d winner %d is not one of its teams", m.ID, *m.WinnerID))
		}
	}
	return issues
}

// checkFeederCounters сверяет feeder_count с реальным числом ссылок на матч.
// Матч, созданный сразу с обеими командами и без фидеров, держит оба слота: feeder_count = 2.
func checkFeederCounters(matches []*models.Match, feeders map[int]int) []string {
	var issues []string
	for _, m := range matches {
		actual := feeders[m.ID]
		if actual == 0 && m.TeamAID != nil && m.TeamBID != nil {
			if m.FeederCount != 2 {
				issues = append(issues, fmt.Sprintf("match %d was created with both teams but feeder_count is %d, expected 2", m.ID, m.FeederCount))
			}
			continue
		}
		if actual != m.FeederCount {
			issues = append(issues, fmt.Sprintf("match %d feeder_count is %d but %d matches feed into it", m.ID, m.FeederCount, actual))
		}
	}
	return issues
}

func sortedIDs(m map[int]int) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
