package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/repositories"
	"github.com/Dosada05/league-bracket/storage"
	"golang.org/x/sync/errgroup"
)

type StageView struct {
	Stage   models.Stage    `json:"stage"`
	Matches []*models.Match `json:"matches"`
}

// BracketView - сетка целиком, сгруппированная по стадиям в порядке лестницы.
type BracketView struct {
	Championship *models.Championship `json:"championship"`
	Key          models.BracketKey    `json:"bracket"`
	FinalMatchID *int                 `json:"final_match_id"`
	ChampionID   *int                 `json:"champion_id"`
	Stages       []StageView          `json:"stages"`
}

type SeedBracketInput struct {
	TeamIDs []int `json:"team_ids"`
}

type SnapshotResult struct {
	Key    string   `json:"key"`
	URL    string   `json:"url"`
	Issues []string `json:"issues"`
}

type snapshotDocument struct {
	ExportedAt time.Time    `json:"exported_at"`
	Bracket    *BracketView `json:"bracket"`
	Issues     []string     `json:"issues"`
}

type BracketService interface {
	GetBracket(ctx context.Context, key models.BracketKey, status *models.MatchStatus) (*BracketView, error)
	// SeedBracket создает матчи первой стадии по парам 1-2, 3-4, ... Останавливается
	// на первой ошибке и возвращает уже созданные матчи вместе с ней.
	SeedBracket(ctx context.Context, key models.BracketKey, input SeedBracketInput) ([]*models.Match, error)
	ExportSnapshot(ctx context.Context, key models.BracketKey) (*SnapshotResult, error)
}

type bracketService struct {
	matchRepo        repositories.MatchRepository
	championshipRepo repositories.ChampionshipRepository
	matches          MatchService
	integrity        IntegrityService
	uploader         storage.FileUploader // nil - выгрузка снимков отключена
	notifier         BracketNotifier
	logger           *slog.Logger
	now              func() time.Time
}

func NewBracketService(
	matchRepo repositories.MatchRepository,
	championshipRepo repositories.ChampionshipRepository,
	matches MatchService,
	integrity IntegrityService,
	uploader storage.FileUploader,
	notifier BracketNotifier,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		matchRepo:        matchRepo,
		championshipRepo: championshipRepo,
		matches:          matches,
		integrity:        integrity,
		uploader:         uploader,
		notifier:         notifierOrNoop(notifier),
		logger:           logger,
		now:              time.Now,
	}
}

func (s *bracketService) GetBracket(ctx context.Context, key models.BracketKey, status *models.MatchStatus) (*BracketView, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	if status != nil && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidationFailed, *status)
	}

	var (
		championship *models.Championship
		matches      []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.championshipRepo.GetByID(gCtx, key.ChampionshipID)
		if err != nil {
			if errors.Is(err, repositories.ErrChampionshipNotFound) {
				return ErrChampionshipNotFound
			}
			return fmt.Errorf("failed to load championship %d: %w", key.ChampionshipID, err)
		}
		championship = c
		return nil
	})
	g.Go(func() error {
		list, err := s.matchRepo.ListByBracket(gCtx, key, repositories.MatchFilter{Status: status})
		if err != nil {
			return fmt.Errorf("failed to list bracket %s: %w", key, err)
		}
		matches = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildView(championship, key, matches), nil
}

// buildView раскладывает матчи по стадиям лестницы. Внутри стадии порядок по id
// сохраняется из выборки.
func buildView(championship *models.Championship, key models.BracketKey, matches []*models.Match) *BracketView {
	ladder := brackets.Ladder(key.Gender)
	view := &BracketView{
		Championship: championship,
		Key:          key,
		Stages:       make([]StageView, len(ladder)),
	}
	for i, stage := range ladder {
		view.Stages[i] = StageView{Stage: stage, Matches: make([]*models.Match, 0)}
	}
	for _, m := range matches {
		idx := brackets.StageIndex(m.Stage, key.Gender)
		if idx < 0 {
			continue
		}
		view.Stages[idx].Matches = append(view.Stages[idx].Matches, m)
		if brackets.IsFinal(m.Stage) && view.FinalMatchID == nil {
			view.FinalMatchID = intPtr(m.ID)
			view.ChampionID = m.WinnerID
		}
	}
	return view
}

func (s *bracketService) SeedBracket(ctx context.Context, key models.BracketKey, input SeedBracketInput) ([]*models.Match, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	pairings, err := brackets.PairTeams(input.TeamIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	first, _ := brackets.FirstStage(key.Gender)
	existing, err := s.matchRepo.ListByBracket(ctx, key, repositories.MatchFilter{Stage: &first})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s matches: %w", first, err)
	}
	if limit := brackets.MaxFirstStageMatches(key.Gender); len(existing)+len(pairings) > limit {
		return nil, fmt.Errorf("%w: %s bracket takes at most %d %s matches, %d exist, %d requested",
			ErrBracketFull, key.Gender, limit, first, len(existing), len(pairings))
	}

	created := make([]*models.Match, 0, len(pairings))
	for _, p := range pairings {
		m, err := s.matches.CreateMatch(ctx, CreateMatchInput{
			TeamAID:        p.TeamAID,
			TeamBID:        p.TeamBID,
			ChampionshipID: key.ChampionshipID,
			SportType:      key.SportType,
			Gender:         key.Gender,
			Stage:          first,
		})
		if err != nil {
			s.logger.Warn("bracket seeding stopped",
				slog.String("bracket", key.String()),
				slog.Int("pair", p.Order),
				slog.Int("created", len(created)),
				slog.Any("error", err),
			)
			return created, fmt.Errorf("seeding pair %d (%d vs %d): %w", p.Order, p.TeamAID, p.TeamBID, err)
		}
		created = append(created, m)
	}

	s.logger.Info("bracket seeded", slog.String("bracket", key.String()), slog.Int("matches", len(created)))
	s.notifier.Publish(key.ChampionshipID, brackets.Message{Type: brackets.MessageBracketUpdated, Payload: key})
	return created, nil
}

func (s *bracketService) ExportSnapshot(ctx context.Context, key models.BracketKey) (*SnapshotResult, error) {
	if s.uploader == nil {
		return nil, ErrSnapshotStorageDisabled
	}
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	var (
		view   *BracketView
		issues []string
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.GetBracket(gCtx, key, nil)
		view = v
		return err
	})
	g.Go(func() error {
		list, err := s.integrity.CheckIntegrity(gCtx, key)
		issues = list
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	exportedAt := s.now().UTC()
	body, err := json.Marshal(snapshotDocument{ExportedAt: exportedAt, Bracket: view, Issues: issues})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	objectKey := storage.SnapshotKey(key, exportedAt)
	uploaded, err := s.uploader.Upload(ctx, objectKey, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	s.logger.Info("bracket snapshot exported",
		slog.String("bracket", key.String()),
		slog.String("key", uploaded.Key),
		slog.Int("issues", len(issues)),
	)
	return &SnapshotResult{Key: uploaded.Key, URL: uploaded.Location, Issues: issues}, nil
}
