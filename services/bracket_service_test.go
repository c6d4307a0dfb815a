package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dosada05/league-bracket/models"
	"github.com/Dosada05/league-bracket/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.key, u.contentType, u.body = key, contentType, body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key), ETag: "etag"}, nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return storage.PublicURL("https://cdn.example.com", key)
}

func newBracketService(env *testEnv, uploader storage.FileUploader) *bracketService {
	svc := NewBracketService(env.store.Matches(), env.store.Championships(), env.matches, env.integrity,
		uploader, env.notifier, discardLogger()).(*bracketService)
	return svc
}

func TestSeedBracket(t *testing.T) {
	env := newTestEnv(t)
	svc := newBracketService(env, nil)
	key := env.key(models.GenderMale)
	key.SportType = "Basketball"

	created, err := svc.SeedBracket(context.Background(), key, SeedBracketInput{TeamIDs: env.maleTeams[:8]})
	require.NoError(t, err)
	require.Len(t, created, 4)
	assert.Equal(t, env.maleTeams[0], *created[0].TeamAID)
	assert.Equal(t, env.maleTeams[1], *created[0].TeamBID)

	view, err := svc.GetBracket(context.Background(), key, nil)
	require.NoError(t, err)
	require.Len(t, view.Stages, 3)
	assert.Equal(t, models.StagePreliminary, view.Stages[0].Stage)
	assert.Len(t, view.Stages[0].Matches, 4)
	assert.Len(t, view.Stages[1].Matches, 2)
	assert.Len(t, view.Stages[2].Matches, 1)
	require.NotNil(t, view.FinalMatchID)
	assert.Equal(t, view.Stages[2].Matches[0].ID, *view.FinalMatchID)
	assert.Nil(t, view.ChampionID)
	assert.Equal(t, "basketball", view.Key.SportType)
	env.requireHealthy(t, env.key(models.GenderMale))
}

func TestSeedBracketRejects(t *testing.T) {
	env := newTestEnv(t)
	svc := newBracketService(env, nil)
	key := env.key(models.GenderMale)
	ctx := context.Background()

	_, err := svc.SeedBracket(ctx, key, SeedBracketInput{TeamIDs: env.maleTeams[:3]})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.SeedBracket(ctx, key, SeedBracketInput{TeamIDs: []int{env.maleTeams[0], env.maleTeams[0]}})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.SeedBracket(ctx, key, SeedBracketInput{TeamIDs: env.maleTeams[:10]})
	assert.ErrorIs(t, err, ErrBracketFull, "male bracket takes at most four preliminaries")

	assert.Empty(t, env.list(t, key))
}

func TestSeedBracketStopsOnFirstError(t *testing.T) {
	env := newTestEnv(t)
	svc := newBracketService(env, nil)
	key := env.key(models.GenderMale)

	teams := []int{env.maleTeams[0], env.maleTeams[1], env.maleTeams[2], env.femaleTeams[0], env.maleTeams[4], env.maleTeams[5]}
	created, err := svc.SeedBracket(context.Background(), key, SeedBracketInput{TeamIDs: teams})
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Len(t, created, 1)
	assert.Len(t, byStage(env.list(t, key), models.StagePreliminary), 1)
}

func TestGetBracketChampionAndFilter(t *testing.T) {
	env := newTestEnv(t)
	svc := newBracketService(env, nil)
	ctx := context.Background()
	key := env.key(models.GenderMale)

	final := env.create(t, models.GenderMale, models.StageFinals, env.maleTeams[0], env.maleTeams[1])
	_, err := env.results.RecordResult(ctx, final.ID, RecordResultInput{WinnerID: env.maleTeams[1]})
	require.NoError(t, err)
	env.create(t, models.GenderMale, models.StagePreliminary, env.maleTeams[2], env.maleTeams[3])

	view, err := svc.GetBracket(ctx, key, nil)
	require.NoError(t, err)
	require.NotNil(t, view.ChampionID)
	assert.Equal(t, env.maleTeams[1], *view.ChampionID)
	assert.Equal(t, env.champ.Name, view.Championship.Name)

	played := models.MatchStatusPlayed
	view, err = svc.GetBracket(ctx, key, &played)
	require.NoError(t, err)
	assert.Empty(t, view.Stages[0].Matches)
	assert.Len(t, view.Stages[2].Matches, 1)

	bad := models.MatchStatus("postponed")
	_, err = svc.GetBracket(ctx, key, &bad)
	assert.ErrorIs(t, err, ErrValidationFailed)

	key.ChampionshipID = 9999
	_, err = svc.GetBracket(ctx, key, nil)
	assert.ErrorIs(t, err, ErrChampionshipNotFound)
}

func TestExportSnapshot(t *testing.T) {
	env := newTestEnv(t)
	uploader := &fakeUploader{}
	svc := newBracketService(env, uploader)
	exportedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return exportedAt }
	key := env.key(models.GenderMale)

	env.create(t, models.GenderMale, models.StagePreliminary, env.maleTeams[0], env.maleTeams[1])

	res, err := svc.ExportSnapshot(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, storage.SnapshotKey(key, exportedAt), res.Key)
	assert.Equal(t, "https://cdn.example.com/"+res.Key, res.URL)
	assert.Empty(t, res.Issues)
	assert.Equal(t, "application/json", uploader.contentType)

	var doc struct {
		ExportedAt time.Time   `json:"exported_at"`
		Bracket    BracketView `json:"bracket"`
		Issues     []string    `json:"issues"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(uploader.body)).Decode(&doc))
	assert.True(t, exportedAt.Equal(doc.ExportedAt))
	assert.Len(t, doc.Bracket.Stages, 3)
	assert.Len(t, doc.Bracket.Stages[0].Matches, 1)
}

func TestExportSnapshotErrors(t *testing.T) {
	env := newTestEnv(t)
	key := env.key(models.GenderMale)

	_, err := newBracketService(env, nil).ExportSnapshot(context.Background(), key)
	assert.ErrorIs(t, err, ErrSnapshotStorageDisabled)

	boom := errors.New("r2 unavailable")
	_, err = newBracketService(env, &fakeUploader{err: boom}).ExportSnapshot(context.Background(), key)
	assert.ErrorIs(t, err, boom)
}
