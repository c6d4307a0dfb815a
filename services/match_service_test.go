package services

import (
	"context"
	"sync"
	"testing"

	"github.com/Dosada05/league-bracket/brackets"
	"github.com/Dosada05/league-bracket/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleMaleBasketballBracket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key := env.key(models.GenderMale)
	t1, t2, t3, t4 := env.maleTeams[0], env.maleTeams[1], env.maleTeams[2], env.maleTeams[3]

	match1 := env.create(t, models.GenderMale, models.StagePreliminary, t1, t2)
	match2 := env.create(t, models.GenderMale, models.StagePreliminary, t3, t4)

	require.NotNil(t, match1.NextMatchID)
	require.NotNil(t, match2.NextMatchID)
	assert.Equal(t, *match1.NextMatchID, *match2.NextMatchID, "both preliminaries feed the same semi-final")

	semi := env.get(t, *match1.NextMatchID)
	assert.Equal(t, models.StageSemiFinals, semi.Stage)
	require.NotNil(t, semi.NextMatchID)
	final := env.get(t, *semi.NextMatchID)
	assert.Equal(t, models.StageFinals, final.Stage)
	assert.Nil(t, final.NextMatchID)

	out, err := env.results.RecordResult(ctx, match1.ID, RecordResultInput{WinnerID: t1})
	require.NoError(t, err)
	assert.Empty(t, out.Warning)
	assert.Equal(t, models.SlotA, out.Slot)

	out, err = env.results.RecordResult(ctx, match2.ID, RecordResultInput{WinnerID: t3})
	require.NoError(t, err)
	assert.Equal(t, models.SlotB, out.Slot)

	semi = env.get(t, semi.ID)
	assert.Equal(t, t1, *semi.TeamAID)
	assert.Equal(t, t3, *semi.TeamBID)

	out, err = env.results.RecordResult(ctx, semi.ID, RecordResultInput{WinnerID: t1})
	require.NoError(t, err)
	assert.Equal(t, models.SlotA, out.Slot)

	final = env.get(t, final.ID)
	require.NotNil(t, final.TeamAID)
	assert.Equal(t, t1, *final.TeamAID)
	assert.Nil(t, final.TeamBID)

	issues, err := env.integrity.CheckIntegrity(ctx, key)
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestCreateMatchNewMatchIsNotYetScheduled(t *testing.T) {
	env := newTestEnv(t)
	played := models.MatchStatusPlayed

	m, err := env.matches.CreateMatch(context.Background(), CreateMatchInput{
		TeamAID:        env.maleTeams[0],
		TeamBID:        env.maleTeams[1],
		ChampionshipID: env.champ.ID,
		SportType:      "  Basketball ",
		Gender:         models.GenderMale,
		Stage:          models.StagePreliminary,
		Status:         &played,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusNotYetScheduled, m.Status)
	assert.Equal(t, "basketball", m.SportType)
	assert.Nil(t, m.WinnerID)
	assert.Equal(t, []string{brackets.MessageMatchCreated}, env.notifier.types())
}

func TestCreatePreliminariesYieldHalfAsManySemis(t *testing.T) {
	env := newTestEnv(t)
	key := env.key(models.GenderMale)

	for i := 0; i < 4; i++ {
		env.create(t, models.GenderMale, models.StagePreliminary, env.maleTeams[2*i], env.maleTeams[2*i+1])
	}

	matches := env.list(t, key)
	assert.Len(t, byStage(matches, models.StagePreliminary), 4)
	assert.Len(t, byStage(matches, models.StageSemiFinals), 2)
	finals := byStage(matches, models.StageFinals)
	require.Len(t, finals, 1)
	assert.Equal(t, 2, finals[0].FeederCount)
	env.requireHealthy(t, key)
}

func TestCreateMatchBracketFull(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	key := env.key(models.GenderMale)

	for i := 0; i < 4; i++ {
		env.create(t, models.GenderMale, models.StagePreliminary, env.maleTeams[2*i], env.maleTeams[2*i+1])
	}
	before := len(env.list(t, key))

	_, err := env.matches.CreateMatch(ctx, CreateMatchInput{
		TeamAID: env.maleTeams[8], TeamBID: env.maleTeams[9],
		ChampionshipID: env.champ.ID, SportType: "basketball",
		Gender: models.GenderMale, Stage: models.StagePreliminary,
	})
	require.ErrorIs(t, err, ErrBracketFull)

	_, err = env.matches.CreateMatch(ctx, CreateMatchInput{
		TeamAID: env.maleTeams[8], TeamBID: env.maleTeams[9],
		ChampionshipID: env.champ.ID, SportType: "basketball",
		Gender: models.GenderMale, Stage: models.StageFinals,
	})
	require.ErrorIs(t, err, ErrBracketFull)

	assert.Len(t, env.list(t, key), before, "failed creations leave no rows")
	env.requireHealthy(t, key)
}

func TestCreateFinalsDirectly(t *testing.T) {
	env := newTestEnv(t)
	key := env.key(models.GenderMale)

	final := env.create(t, models.GenderMale, models.StageFinals, env.maleTeams[0], env.maleTeams[1])
	assert.Nil(t, final.NextMatchID)
	assert.Equal(t, 2, final.FeederCount, "both slots are taken by the known teams")

	// Полуфинал уже некуда вести: финал занят.
	_, err := env.matches.CreateMatch(context.Background(), CreateMatchInput{
		TeamAID: env.maleTeams[2], TeamBID: env.maleTeams[3],
		ChampionshipID: env.champ.ID, SportType: "basketball",
		Gender: models.GenderMale, Stage: models.StageSemiFinals,
	})
	require.ErrorIs(t, err, ErrBracketFull)
	assert.Len(t, env.list(t, key), 1)
	env.requireHealthy(t, key)
}

func TestCreateSemiFinalDirectlyIsNotClaimed(t *testing.T) {
	env := newTestEnv(t)
	key := env.key(models.GenderMale)

	semi := env.create(t, models.GenderMale, models.StageSemiFinals, env.maleTeams[0], env.maleTeams[1])
	prelim := env.create(t, models.GenderMale, models.StagePreliminary, env.maleTeams[2], env.maleTeams[3])
	require.NotNil(t, prelim.NextMatchID)
	assert.NotEqual(t, semi.ID, *prelim.NextMatchID, "a seeded semi-final has no free slot")
	env.requireHealthy(t, key)
}

func TestCreateMatchFemaleLadder(t *testing.T) {
	env := newTestEnv(t)
	key := env.key(models.GenderFemale)

	m := env.create(t, models.GenderFemale, models.StagePreliminary, env.femaleTeams[0], env.femaleTeams[1])
	require.NotNil(t, m.NextMatchID)
	assert.Equal(t, models.StageQuarterFinals, env.get(t, *m.NextMatchID).Stage)
	assert.Len(t, env.list(t, key), 4)
	env.requireHealthy(t, key)
}

func TestCreateMatchRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	base := CreateMatchInput{
		TeamAID:        env.maleTeams[0],
		TeamBID:        env.maleTeams[1],
		ChampionshipID: env.champ.ID,
		SportType:      "basketball",
		Gender:         models.GenderMale,
		Stage:          models.StagePreliminary,
	}

	tests := []struct {
		name   string
		mutate func(in *CreateMatchInput)
		want   error
	}{
		{"stage not on male ladder", func(in *CreateMatchInput) { in.Stage = models.StageQuarterFinals }, ErrInvalidStage},
		{"unknown stage", func(in *CreateMatchInput) { in.Stage = "group" }, ErrInvalidStage},
		{"unknown gender", func(in *CreateMatchInput) { in.Gender = "mixed" }, ErrInvalidStage},
		{"empty sport", func(in *CreateMatchInput) { in.SportType = "  " }, ErrValidationFailed},
		{"team plays itself", func(in *CreateMatchInput) { in.TeamBID = in.TeamAID }, ErrValidationFailed},
		{"missing team", func(in *CreateMatchInput) { in.TeamBID = 0 }, ErrValidationFailed},
		{"unknown team", func(in *CreateMatchInput) { in.TeamBID = 9999 }, ErrTeamNotFound},
		{"unknown championship", func(in *CreateMatchInput) { in.ChampionshipID = 9999 }, ErrChampionshipNotFound},
		{"team gender differs", func(in *CreateMatchInput) { in.TeamBID = env.femaleTeams[0] }, ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := env.matches.CreateMatch(context.Background(), in)
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.Empty(t, env.list(t, env.key(models.GenderMale)))
}

func TestInvalidGenderIsInvalidStage(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidGender, ErrInvalidStage)
}

func TestCreateMatchConcurrent(t *testing.T) {
	env := newTestEnv(t)
	key := env.key(models.GenderFemale)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.matches.CreateMatch(context.Background(), CreateMatchInput{
				TeamAID:        env.femaleTeams[2*i],
				TeamBID:        env.femaleTeams[2*i+1],
				ChampionshipID: env.champ.ID,
				SportType:      "volleyball",
				Gender:         models.GenderFemale,
				Stage:          models.StagePreliminary,
			})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	key.SportType = "volleyball"
	matches := env.list(t, key)
	assert.Len(t, byStage(matches, models.StagePreliminary), 8)
	assert.Len(t, byStage(matches, models.StageQuarterFinals), 4)
	assert.Len(t, byStage(matches, models.StageSemiFinals), 2)
	assert.Len(t, byStage(matches, models.StageFinals), 1)
	env.requireHealthy(t, key)
}

func TestGetMatch(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, models.GenderMale, models.StagePreliminary, env.maleTeams[0], env.maleTeams[1])

	got, err := env.matches.GetMatch(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = env.matches.GetMatch(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
