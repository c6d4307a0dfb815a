package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/repositories"
)

type RecordResultInput struct {
	WinnerID int  `json:"winner_id"`
	ScoreA   *int `json:"score_a,omitempty"`
	ScoreB   *int `json:"score_b,omitempty"`
}

// ResultOutcome - сыгранный матч и то, куда продвинулся победитель.
// Warning непустой, если результат записан, а продвинуть победителя не удалось.
type ResultOutcome struct {
	Match     *models.Match `json:"match"`
	NextMatch *models.Match `json:"next_match,omitempty"`
	Slot      models.Slot   `json:"slot,omitempty"`
	Warning   string        `json:"warning,omitempty"`
}

type ResultService interface {
	RecordResult(ctx context.Context, matchID int, input RecordResultInput) (*ResultOutcome, error)
}

type resultService struct {
	store     repositories.BracketStore
	matchRepo repositories.MatchRepository
	notifier  BracketNotifier
	retry     RetryOptions
	logger    *slog.Logger
}

func NewResultService(
	store repositories.BracketStore,
	matchRepo repositories.MatchRepository,
	notifier BracketNotifier,
	retry RetryOptions,
	logger *slog.Logger,
) ResultService {
	retry.FillDefaults()
	return &resultService{
		store:     store,
		matchRepo: matchRepo,
		notifier:  notifierOrNoop(notifier),
		retry:     retry,
		logger:    logger,
	}
}

// errAlreadyRecorded - внутренний сигнал: тот же победитель уже записан.
var errAlreadyRecorded = errors.New("same winner already recorded")

func (s *resultService) RecordResult(ctx context.Context, matchID int, input RecordResultInput) (*ResultOutcome, error) {
	if matchID <= 0 {
		return nil, ErrMatchNotFound
	}
	if input.WinnerID <= 0 {
		return nil, fmt.Errorf("%w: winner_id is required", ErrInvalidWinner)
	}
	if (input.ScoreA != nil && *input.ScoreA < 0) || (input.ScoreB != nil && *input.ScoreB < 0) {
		return nil, fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}

	current, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	if err := checkWinner(current, input.WinnerID); err != nil {
		if errors.Is(err, errAlreadyRecorded) {
			return &ResultOutcome{Match: current}, nil
		}
		return nil, err
	}

	key := current.Key()
	var outcome *ResultOutcome
	err = retryOnConflict(ctx, s.retry, func() error {
		return s.store.InTx(ctx, key, func(tx repositories.BracketTx) error {
			o, err := s.recordAndAdvance(ctx, tx, matchID, input)
			outcome = o
			return err
		})
	})

	switch {
	case err == nil:
	case errors.Is(err, errAlreadyRecorded):
		// Параллельный запрос записал тот же результат раньше нас.
		m, getErr := s.matchRepo.GetByID(ctx, matchID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to reload match %d: %w", matchID, getErr)
		}
		return &ResultOutcome{Match: m}, nil
	case errors.Is(err, repositories.ErrConflict):
		s.logger.Warn("advancement retries exhausted, recording result only",
			slog.Int("match_id", matchID),
			slog.String("bracket", key.String()),
			slog.Any("error", err),
		)
		outcome, err = s.recordOnly(ctx, key, matchID, input)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.publish(key.ChampionshipID, outcome)
	return outcome, nil
}

func (s *resultService) recordAndAdvance(ctx context.Context, tx repositories.BracketTx, matchID int, input RecordResultInput) (*ResultOutcome, error) {
	m, err := lockForResult(ctx, tx, matchID, input.WinnerID)
	if err != nil {
		return nil, err
	}
	if err := tx.SetResult(ctx, matchID, input.WinnerID, input.ScoreA, input.ScoreB); err != nil {
		return nil, mapSetResultError(matchID, err)
	}
	played, err := tx.GetMatchForUpdate(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload match %d: %w", matchID, err)
	}
	outcome := &ResultOutcome{Match: played}

	if m.NextMatchID == nil {
		if brackets.IsFinal(m.Stage) {
			s.logger.Info("bracket champion decided",
				slog.String("bracket", m.Key().String()),
				slog.Int("match_id", m.ID),
				slog.Int("winner_id", input.WinnerID),
			)
		}
		return outcome, nil
	}

	nextID := *m.NextMatchID
	slot, err := tx.FillSlot(ctx, nextID, input.WinnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to advance winner into match %d: %w", nextID, err)
	}
	next, err := tx.GetMatchForUpdate(ctx, nextID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			outcome.Warning = WarningAdvancementFailed
			return outcome, nil
		}
		return nil, fmt.Errorf("failed to load next match %d: %w", nextID, err)
	}
	outcome.NextMatch = next
	outcome.Slot = slot

	if slot == models.SlotNone {
		// Оба слота уже заняты: результат сохраняем, занятые слоты не трогаем.
		outcome.Warning = WarningAdvancementFailed
		s.logger.Warn("next match is full, winner not advanced",
			slog.Int("match_id", matchID),
			slog.Int("next_match_id", nextID),
			slog.Int("winner_id", input.WinnerID),
		)
		return outcome, nil
	}

	s.logger.Info("winner advanced",
		slog.Int("match_id", matchID),
		slog.Int("next_match_id", nextID),
		slog.String("slot", string(slot)),
		slog.Int("winner_id", input.WinnerID),
	)
	return outcome, nil
}

// recordOnly сохраняет результат без продвижения. Используется, когда
// продвижение так и не прошло из-за конфликтов.
func (s *resultService) recordOnly(ctx context.Context, key models.BracketKey, matchID int, input RecordResultInput) (*ResultOutcome, error) {
	var played *models.Match
	err := s.store.InTx(ctx, key, func(tx repositories.BracketTx) error {
		if _, err := lockForResult(ctx, tx, matchID, input.WinnerID); err != nil {
			return err
		}
		if err := tx.SetResult(ctx, matchID, input.WinnerID, input.ScoreA, input.ScoreB); err != nil {
			return mapSetResultError(matchID, err)
		}
		m, err := tx.GetMatchForUpdate(ctx, matchID)
		played = m
		return err
	})
	if err != nil {
		if errors.Is(err, errAlreadyRecorded) {
			m, getErr := s.matchRepo.GetByID(ctx, matchID)
			if getErr != nil {
				return nil, fmt.Errorf("failed to reload match %d: %w", matchID, getErr)
			}
			return &ResultOutcome{Match: m}, nil
		}
		return nil, fmt.Errorf("failed to record result of match %d: %w", matchID, err)
	}
	return &ResultOutcome{Match: played, Warning: WarningAdvancementFailed}, nil
}

// lockForResult блокирует матч и повторно проверяет победителя уже под блокировкой.
func lockForResult(ctx context.Context, tx repositories.BracketTx, matchID, winnerID int) (*models.Match, error) {
	m, err := tx.GetMatchForUpdate(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %d: %w", matchID, err)
	}
	if err := checkWinner(m, winnerID); err != nil {
		return nil, err
	}
	return m, nil
}

func checkWinner(m *models.Match, winnerID int) error {
	if m.TeamAID == nil || m.TeamBID == nil {
		return fmt.Errorf("%w: match %d does not have both teams yet", ErrInvalidWinner, m.ID)
	}
	if !m.HasTeam(winnerID) {
		return fmt.Errorf("%w: team %d does not play in match %d", ErrInvalidWinner, winnerID, m.ID)
	}
	if m.WinnerID != nil {
		if *m.WinnerID == winnerID {
			return errAlreadyRecorded
		}
		return fmt.Errorf("%w: match %d was won by team %d", ErrResultAlreadyRecorded, m.ID, *m.WinnerID)
	}
	return nil
}

func mapSetResultError(matchID int, err error) error {
	if errors.Is(err, repositories.ErrMatchWinnerInvalid) {
		return fmt.Errorf("%w: match %d", ErrInvalidWinner, matchID)
	}
	return fmt.Errorf("failed to record result of match %d: %w", matchID, err)
}

func (s *resultService) publish(championshipID int, outcome *ResultOutcome) {
	s.notifier.Publish(championshipID, brackets.Message{Type: brackets.MessageMatchUpdated, Payload: outcome.Match})
	if outcome.NextMatch != nil && outcome.Slot != models.SlotNone {
		s.notifier.Publish(championshipID, brackets.Message{Type: brackets.MessageMatchUpdated, Payload: outcome.NextMatch})
	}
	if brackets.IsFinal(outcome.Match.Stage) {
		s.notifier.Publish(championshipID, brackets.Message{Type: brackets.MessageBracketUpdated, Payload: outcome.Match.Key()})
	}
}
