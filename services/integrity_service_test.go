package services

import (
	"context"
	"testing"

	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrityEmptyBracket(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewIntegrityService(store.Matches(), discardLogger())

	issues, err := svc.CheckIntegrity(context.Background(), models.BracketKey{ChampionshipID: 1, SportType: "chess", Gender: models.GenderMale})
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestCheckIntegrityRejectsBadKey(t *testing.T) {
	store := repositories.NewMemoryStore()
	svc := NewIntegrityService(store.Matches(), discardLogger())

	_, err := svc.CheckIntegrity(context.Background(), models.BracketKey{ChampionshipID: 1, SportType: "chess", Gender: "x"})
	assert.ErrorIs(t, err, ErrInvalidGender)
}

func TestCheckIntegrityFindsViolations(t *testing.T) {
	key := models.BracketKey{ChampionshipID: 1, SportType: "football", Gender: models.GenderMale}
	one, two, three := 1, 2, 3

	match := func(stage models.Stage, mutate func(m *models.Match)) models.Match {
		m := models.Match{
			ChampionshipID: key.ChampionshipID,
			SportType:      key.SportType,
			Gender:         key.Gender,
			Stage:          stage,
			Status:         models.MatchStatusNotYetScheduled,
		}
		if mutate != nil {
			mutate(&m)
		}
		return m
	}

	tests := []struct {
		name  string
		setup func(s *repositories.MemoryStore)
		want  []string
	}{
		{
			name: "two finals",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StageFinals, nil))
				s.PutMatch(match(models.StageFinals, nil))
			},
			want: []string{"bracket 1/football/male has 2 finals matches [1 2], expected at most one"},
		},
		{
			name: "finals with next match",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StageSemiFinals, func(m *models.Match) { m.FeederCount = 1 }))
				s.PutMatch(match(models.StageFinals, func(m *models.Match) { m.NextMatchID = &one }))
			},
			want: []string{"finals match 2 has next_match_id 1, expected none"},
		},
		{
			name: "three feeders",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StageSemiFinals, func(m *models.Match) { m.FeederCount = 3 }))
				for i := 0; i < 3; i++ {
					s.PutMatch(match(models.StagePreliminary, func(m *models.Match) { m.NextMatchID = &one }))
				}
			},
			want: []string{"match 1 has 3 feeder matches, expected at most two"},
		},
		{
			name: "winner without result",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StagePreliminary, func(m *models.Match) {
					m.TeamAID, m.TeamBID, m.WinnerID = &one, &two, &three
					m.Status = models.MatchStatusScheduled
					m.FeederCount = 2
				}))
			},
			want: []string{
				"match 1 has winner 3 but status scheduled",
				"match 1 winner 3 is not one of its teams",
			},
		},
		{
			name: "winner without opponent",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StageSemiFinals, func(m *models.Match) {
					m.TeamAID, m.WinnerID = &one, &one
					m.Status = models.MatchStatusPlayed
					m.FeederCount = 2
				}))
				s.PutMatch(match(models.StagePreliminary, func(m *models.Match) { m.NextMatchID = &one }))
				s.PutMatch(match(models.StagePreliminary, func(m *models.Match) { m.NextMatchID = &one }))
			},
			want: []string{"match 1 has winner 1 but is missing an opponent"},
		},
		{
			name: "seeded match with free slots",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StageFinals, func(m *models.Match) { m.TeamAID, m.TeamBID = &one, &two }))
			},
			want: []string{"match 1 was created with both teams but feeder_count is 0, expected 2"},
		},
		{
			name: "feeder count drift",
			setup: func(s *repositories.MemoryStore) {
				s.PutMatch(match(models.StageSemiFinals, func(m *models.Match) { m.FeederCount = 2 }))
				s.PutMatch(match(models.StagePreliminary, func(m *models.Match) { m.NextMatchID = &one }))
			},
			want: []string{"match 1 feeder_count is 2 but 1 matches feed into it"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repositories.NewMemoryStore()
			tt.setup(store)
			svc := NewIntegrityService(store.Matches(), discardLogger())

			issues, err := svc.CheckIntegrity(context.Background(), key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, issues)
		})
	}
}

func TestCheckIntegrityIgnoresOtherBrackets(t *testing.T) {
	store := repositories.NewMemoryStore()
	for _, gender := range []models.Gender{models.GenderMale, models.GenderFemale} {
		store.PutMatch(models.Match{ChampionshipID: 1, SportType: "football", Gender: gender, Stage: models.StageFinals, Status: models.MatchStatusNotYetScheduled})
	}
	svc := NewIntegrityService(store.Matches(), discardLogger())

	issues, err := svc.CheckIntegrity(context.Background(), models.BracketKey{ChampionshipID: 1, SportType: "football", Gender: models.GenderFemale})
	require.NoError(t, err)
	assert.Empty(t, issues)
}
