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

// maxClaimAttempts ограничивает поиск кандидата: каждый неудачный ClaimSlot
// означает, что матч заполнен и при следующем поиске уже не вернется.
const maxClaimAttempts = 8

// SlotAllocator находит или создает матч следующей стадии со свободным слотом.
// Все его методы работают внутри транзакции BracketStore.InTx, поэтому
// проверка числа фидеров и занятие слота - одна атомарная операция.
type SlotAllocator struct {
	logger *slog.Logger
}

func NewSlotAllocator(logger *slog.Logger) *SlotAllocator {
	return &SlotAllocator{logger: logger}
}

// FindOrCreateNextMatch занимает слот в матче стадии, следующей за currentStage,
// и возвращает его id. nil без ошибки означает одно из двух: currentStage
// терминальна (финал) или следующая стадия заполнена.
func (a *SlotAllocator) FindOrCreateNextMatch(ctx context.Context, tx repositories.BracketTx, key models.BracketKey, currentStage models.Stage) (*int, error) {
	nextStage, ok := brackets.NextStage(currentStage, key.Gender)
	if !ok {
		return nil, nil
	}
	if brackets.IsFinal(nextStage) {
		return a.claimFinal(ctx, tx, key, nextStage)
	}
	return a.claimOrCreate(ctx, tx, key, nextStage)
}

func (a *SlotAllocator) claimFinal(ctx context.Context, tx repositories.BracketTx, key models.BracketKey, stage models.Stage) (*int, error) {
	final, err := tx.FindFinal(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up finals for bracket %s: %w", key, err)
	}

	if final != nil {
		claimed, err := tx.ClaimSlot(ctx, final.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to claim finals slot %d: %w", final.ID, err)
		}
		if !claimed {
			a.logger.Debug("finals already has two feeders", slog.String("bracket", key.String()), slog.Int("match_id", final.ID))
			return nil, nil
		}
		return intPtr(final.ID), nil
	}

	m := newPlaceholder(key, stage, nil)
	if err := tx.InsertMatch(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrFinalsConflict) {
			// Финал создан параллельной транзакцией: повторяем поиск заново.
			return nil, fmt.Errorf("%w: finals created concurrently for bracket %s", repositories.ErrConflict, key)
		}
		return nil, fmt.Errorf("failed to create finals placeholder: %w", err)
	}
	a.logger.Info("finals placeholder created", slog.String("bracket", key.String()), slog.Int("match_id", m.ID))
	return intPtr(m.ID), nil
}

func (a *SlotAllocator) claimOrCreate(ctx context.Context, tx repositories.BracketTx, key models.BracketKey, stage models.Stage) (*int, error) {
	for range maxClaimAttempts {
		candidate, err := tx.FindClaimableMatch(ctx, key, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to find %s match with a free slot: %w", stage, err)
		}
		if candidate == nil {
			break
		}
		claimed, err := tx.ClaimSlot(ctx, candidate.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to claim slot in match %d: %w", candidate.ID, err)
		}
		if claimed {
			return intPtr(candidate.ID), nil
		}
	}

	// Свободных матчей нет. Сначала занимаем слот ниже по сетке для нового матча,
	// потом создаем сам матч со ссылкой на него.
	downstream, err := a.FindOrCreateNextMatch(ctx, tx, key, stage)
	if err != nil {
		return nil, err
	}
	if downstream == nil {
		return nil, nil
	}

	m := newPlaceholder(key, stage, downstream)
	if err := tx.InsertMatch(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create %s placeholder: %w", stage, err)
	}
	a.logger.Info("placeholder match created",
		slog.String("bracket", key.String()),
		slog.String("stage", string(stage)),
		slog.Int("match_id", m.ID),
		slog.Int("next_match_id", *downstream),
	)
	return intPtr(m.ID), nil
}

// newPlaceholder - матч без команд, который сразу получает своего первого фидера.
func newPlaceholder(key models.BracketKey, stage models.Stage, next *int) *models.Match {
	return &models.Match{
		ChampionshipID: key.ChampionshipID,
		SportType:      key.SportType,
		Gender:         key.Gender,
		Stage:          stage,
		Status:         models.MatchStatusNotYetScheduled,
		NextMatchID:    next,
		FeederCount:    1,
	}
}
