package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/repositories"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []brackets.Message
}

func (n *recordingNotifier) Publish(championshipID int, msg brackets.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.messages))
	for _, m := range n.messages {
		out = append(out, m.Type)
	}
	return out
}

type testEnv struct {
	store       *repositories.MemoryStore
	notifier    *recordingNotifier
	allocator   *SlotAllocator
	integrity   IntegrityService
	matches     MatchService
	results     ResultService
	champ       *models.Championship
	maleTeams   []int
	femaleTeams []int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := discardLogger()
	store := repositories.NewMemoryStore()
	notifier := &recordingNotifier{}

	env := &testEnv{
		store:     store,
		notifier:  notifier,
		allocator: NewSlotAllocator(logger),
		integrity: NewIntegrityService(store.Matches(), logger),
		champ:     store.AddChampionship(models.Championship{Name: "City School League", Status: models.ChampionshipStatusOngoing}),
	}
	for i := 0; i < 16; i++ {
		env.maleTeams = append(env.maleTeams, store.AddTeam(models.Team{Name: "Boys", Grade: "9", Gender: models.GenderMale}).ID)
		env.femaleTeams = append(env.femaleTeams, store.AddTeam(models.Team{Name: "Girls", Grade: "9", Gender: models.GenderFemale}).ID)
	}
	env.matches = NewMatchService(store, store.Matches(), store.Teams(), store.Championships(),
		env.allocator, env.integrity, notifier, fastRetry, logger)
	env.results = NewResultService(store, store.Matches(), notifier, fastRetry, logger)
	return env
}

func (e *testEnv) key(gender models.Gender) models.BracketKey {
	return models.BracketKey{ChampionshipID: e.champ.ID, SportType: "basketball", Gender: gender}
}

func (e *testEnv) create(t *testing.T, gender models.Gender, stage models.Stage, teamA, teamB int) *models.Match {
	t.Helper()
	m, err := e.matches.CreateMatch(context.Background(), CreateMatchInput{
		TeamAID:        teamA,
		TeamBID:        teamB,
		ChampionshipID: e.champ.ID,
		SportType:      "basketball",
		Gender:         gender,
		Stage:          stage,
	})
	require.NoError(t, err)
	return m
}

func (e *testEnv) get(t *testing.T, id int) *models.Match {
	t.Helper()
	m, err := e.store.Matches().GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (e *testEnv) list(t *testing.T, key models.BracketKey) []*models.Match {
	t.Helper()
	ms, err := e.store.Matches().ListByBracket(context.Background(), key, repositories.MatchFilter{})
	require.NoError(t, err)
	return ms
}

func (e *testEnv) requireHealthy(t *testing.T, key models.BracketKey) {
	t.Helper()
	issues, err := e.integrity.CheckIntegrity(context.Background(), key)
	require.NoError(t, err)
	require.Empty(t, issues)
}

func byStage(matches []*models.Match, stage models.Stage) []*models.Match {
	var out []*models.Match
	for _, m := range matches {
		if m.Stage == stage {
			out = append(out, m)
		}
	}
	return out
}
