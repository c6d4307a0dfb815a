package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateMatchInput struct {
	TeamAID        int           `json:"team_a_id"`
	TeamBID        int           `json:"team_b_id"`
	ChampionshipID int           `json:"championship_id"`
	SportType      string        `json:"sport_type"`
	Gender         models.Gender `json:"gender"`
	Stage          models.Stage  `json:"stage"`
	// Статус от клиента игнорируется: сетка строится до расписания,
	// новый матч всегда not_yet_scheduled.
	Status *models.MatchStatus `json:"status,omitempty"`
}

func (in CreateMatchInput) key() models.BracketKey {
	return models.BracketKey{ChampionshipID: in.ChampionshipID, SportType: in.SportType, Gender: in.Gender}
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id int) (*models.Match, error)
}

type matchService struct {
	store            repositories.BracketStore
	matchRepo        repositories.MatchRepository
	teamRepo         repositories.TeamRepository
	championshipRepo repositories.ChampionshipRepository
	allocator        *SlotAllocator
	integrity        IntegrityService
	notifier         BracketNotifier
	retry            RetryOptions
	logger           *slog.Logger
}

func NewMatchService(
	store repositories.BracketStore,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	championshipRepo repositories.ChampionshipRepository,
	allocator *SlotAllocator,
	integrity IntegrityService,
	notifier BracketNotifier,
	retry RetryOptions,
	logger *slog.Logger,
) MatchService {
	retry.FillDefaults()
	return &matchService{
		store:            store,
		matchRepo:        matchRepo,
		teamRepo:         teamRepo,
		championshipRepo: championshipRepo,
		allocator:        allocator,
		integrity:        integrity,
		notifier:         notifierOrNoop(notifier),
		retry:            retry,
		logger:           logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	key, err := normalizeKey(input.key())
	if err != nil {
		return nil, err
	}
	if !brackets.IsStageOf(input.Stage, key.Gender) {
		return nil, fmt.Errorf("%w: %q for %s", ErrInvalidStage, input.Stage, key.Gender)
	}
	if input.TeamAID <= 0 || input.TeamBID <= 0 {
		return nil, fmt.Errorf("%w: team_a_id and team_b_id are required", ErrValidationFailed)
	}
	if input.TeamAID == input.TeamBID {
		return nil, fmt.Errorf("%w: a team cannot play itself", ErrValidationFailed)
	}
	if err := s.checkParticipants(ctx, key, input.TeamAID, input.TeamBID); err != nil {
		return nil, err
	}

	var created *models.Match
	err = retryOnConflict(ctx, s.retry, func() error {
		return s.store.InTx(ctx, key, func(tx repositories.BracketTx) error {
			m, err := insertLeafMatch(ctx, tx, s.allocator, key, input.Stage, input.TeamAID, input.TeamBID)
			created = m
			return err
		})
	})
	if err != nil {
		return nil, mapCreateError(err)
	}

	s.logger.Info("match created",
		slog.Int("match_id", created.ID),
		slog.String("bracket", key.String()),
		slog.String("stage", string(created.Stage)),
	)
	s.auditAfterWrite(ctx, key)
	s.notifier.Publish(key.ChampionshipID, brackets.Message{Type: brackets.MessageMatchCreated, Payload: created})

	return created, nil
}

// insertLeafMatch создает матч с известными командами и привязывает его к
// следующей стадии. Оба слота заняты командами, поэтому feeder_count = 2 и
// аллокатор не отдаст этот матч фидерам. Вызывается внутри BracketStore.InTx.
func insertLeafMatch(ctx context.Context, tx repositories.BracketTx, allocator *SlotAllocator, key models.BracketKey, stage models.Stage, teamAID, teamBID int) (*models.Match, error) {
	var nextMatchID *int
	if !brackets.IsFinal(stage) {
		next, err := allocator.FindOrCreateNextMatch(ctx, tx, key, stage)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%w: no free slot after %s in bracket %s", ErrBracketFull, stage, key)
		}
		nextMatchID = next
	}

	m := &models.Match{
		ChampionshipID: key.ChampionshipID,
		SportType:      key.SportType,
		Gender:         key.Gender,
		Stage:          stage,
		TeamAID:        intPtr(teamAID),
		TeamBID:        intPtr(teamBID),
		Status:         models.MatchStatusNotYetScheduled,
		NextMatchID:    nextMatchID,
		FeederCount:    2,
	}
	if err := tx.InsertMatch(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrFinalsConflict) {
			return nil, fmt.Errorf("%w: bracket %s already has a finals match", ErrBracketFull, key)
		}
		return nil, fmt.Errorf("failed to insert match: %w", err)
	}
	return m, nil
}

func (s *matchService) checkParticipants(ctx context.Context, key models.BracketKey, teamIDs ...int) error {
	return checkParticipants(ctx, s.championshipRepo, s.teamRepo, key, teamIDs...)
}

// mapCreateError переводит ошибки хранилища в ошибки сервиса. Конфликты,
// оставшиеся после всех повторов, означают, что слот так и не удалось занять.
func mapCreateError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrConflict):
		return fmt.Errorf("%w: %v", ErrBracketFull, err)
	case errors.Is(err, repositories.ErrMatchTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrMatchChampionshipInvalid):
		return ErrChampionshipNotFound
	}
	return err
}

// checkParticipants проверяет чемпионат и команды параллельно.
func checkParticipants(ctx context.Context, championshipRepo repositories.ChampionshipRepository, teamRepo repositories.TeamRepository, key models.BracketKey, teamIDs ...int) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, err := championshipRepo.GetByID(gCtx, key.ChampionshipID); err != nil {
			if errors.Is(err, repositories.ErrChampionshipNotFound) {
				return fmt.Errorf("%w: %d", ErrChampionshipNotFound, key.ChampionshipID)
			}
			return fmt.Errorf("failed to load championship %d: %w", key.ChampionshipID, err)
		}
		return nil
	})

	for _, teamID := range teamIDs {
		g.Go(func() error {
			team, err := teamRepo.GetByID(gCtx, teamID)
			if err != nil {
				if errors.Is(err, repositories.ErrTeamNotFound) {
					return fmt.Errorf("%w: %d", ErrTeamNotFound, teamID)
				}
				return fmt.Errorf("failed to load team %d: %w", teamID, err)
			}
			if team.Gender != key.Gender {
				return fmt.Errorf("%w: team %d is %s, bracket is %s", ErrValidationFailed, teamID, team.Gender, key.Gender)
			}
			return nil
		})
	}

	return g.Wait()
}

// auditAfterWrite запускает проверку целостности. Найденные проблемы только логируются.
func (s *matchService) auditAfterWrite(ctx context.Context, key models.BracketKey) {
	if s.integrity == nil {
		return
	}
	issues, err := s.integrity.CheckIntegrity(ctx, key)
	if err != nil {
		s.logger.Error("integrity check failed", slog.String("bracket", key.String()), slog.Any("error", err))
		return
	}
	for _, issue := range issues {
		s.logger.Warn("bracket integrity issue",
			slog.Int("championship_id", key.ChampionshipID),
			slog.String("sport", key.SportType),
			slog.String("gender", string(key.Gender)),
			slog.String("issue", issue),
		)
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return m, nil
}
