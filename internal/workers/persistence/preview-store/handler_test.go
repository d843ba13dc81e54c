// internal/workers/persistence/preview-store/handler_test.go
package previewstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"f1-previews/internal/common/database"
	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 9, 5, 18, 30, 0, 0, time.UTC)

type brokenKV struct {
	database.KV
}

func (brokenKV) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (brokenKV) Set(ctx context.Context, key, value string) error {
	return errors.New("connection refused")
}

func createTestStore(t *testing.T) (*Store, database.KV) {
	kv := database.NewMemory()
	store := NewStore(LoadConfig(), kv, logger.NewTestLogger(t))
	store.now = func() time.Time { return fixedNow }
	return store, kv
}

func sampleData() models.GeneratedData {
	return models.ReduceAll(models.NewGeneratedData(),
		models.SetRaceContext{RaceContext: `{"weather":"dry"}`},
		models.PutDriverPreview{Name: "Lando Norris", Preview: models.DriverPreview{
			TLDR: "Pole favourite", Full: "## Current Form\nStrong.", StakesLevel: models.StakesHigh,
			KeyStrengths: []string{"tyre management"},
		}},
		models.SetTop5{Entries: []models.Top5Entry{{Rank: 1, Driver: "Lando Norris", Reason: "pace", Stakes: "high"}}},
		models.SetUnderdogs{Entries: []models.UnderdogEntry{{Driver: "Alex Albon", Title: "Points again", Story: "...", SurpriseFactor: "medium"}}},
		models.SetMetadata{Metadata: models.Metadata{Circuit: "monza", Date: "2025-09-07", Season: "2025"}},
	)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, sampleData(), fixedNow)
	require.NoError(t, err)
	require.NotNil(t, saved.Metadata.GeneratedAt)
	assert.Equal(t, "2025-09-05T18:30:00Z", *saved.Metadata.GeneratedAt)

	loaded := store.Load(ctx)
	assert.Equal(t, saved, loaded)

	// merging the same blob twice is idempotent
	assert.Equal(t, loaded, store.Load(ctx))
}

func TestStore_Load_OlderShape(t *testing.T) {
	store, kv := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "f1-preview-data", `{"drivers":{"Max Verstappen":{"tldr":"t","full":"f"}},"metadata":{"circuit":"zandvoort"}}`))

	loaded := store.Load(ctx)
	assert.Equal(t, "t", loaded.Drivers["Max Verstappen"].TLDR)
	assert.Equal(t, []models.Top5Entry{}, loaded.Top5)
	assert.Equal(t, []models.UnderdogEntry{}, loaded.Underdogs)
	assert.Equal(t, "zandvoort", loaded.Metadata.Circuit)
	assert.Empty(t, loaded.Metadata.Season)
	assert.Nil(t, loaded.Metadata.GeneratedAt)
	assert.Nil(t, loaded.Standings)
}

func TestStore_Load_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "truncated", blob: `{"drivers":{"Lando Norris":{"tldr":"x"`},
		{name: "array", blob: `[{"tldr":"x"}]`},
		{name: "null", blob: `null`},
		{name: "not json", blob: `undefined`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, kv := createTestStore(t)
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, "f1-preview-data", tt.blob))

			assert.Equal(t, models.NewGeneratedData(), store.Load(ctx))

			_, ok, err := kv.Get(ctx, "f1-preview-data")
			require.NoError(t, err)
			assert.False(t, ok, "corrupt blob should be removed")
		})
	}
}

func TestStore_Load_MistypedFieldsResetIndividually(t *testing.T) {
	store, kv := createTestStore(t)
	ctx := context.Background()

	blob := `{
		"drivers": {
			"Lando Norris": {"tldr": "Home of speed", "full": "Body"},
			"Oscar Piastri": {"tldr": 12, "full": "Body"}
		},
		"top5": {"drivers": [{"rank": "1", "driver": "Lando Norris", "reason": "pace", "stakes": "title"}]},
		"underdogs": "none yet",
		"raceContext": {"weather": "dry"},
		"prediction": 42,
		"metadata": {"circuit": "monza", "date": "2025-09-07", "season": "2025"}
	}`
	require.NoError(t, kv.Set(ctx, "f1-preview-data", blob))

	loaded := store.Load(ctx)
	assert.Equal(t, "Home of speed", loaded.Drivers["Lando Norris"].TLDR)
	assert.NotContains(t, loaded.Drivers, "Oscar Piastri")
	require.Len(t, loaded.Top5, 1)
	assert.Equal(t, models.Rank(1), loaded.Top5[0].Rank)
	assert.Equal(t, "Lando Norris", loaded.Top5[0].Driver)
	assert.Equal(t, []models.UnderdogEntry{}, loaded.Underdogs)
	assert.Equal(t, `{"weather": "dry"}`, loaded.RaceContext)
	assert.Empty(t, loaded.Prediction)
	assert.Equal(t, "monza", loaded.Metadata.Circuit)
	assert.Equal(t, "2025", loaded.Metadata.Season)

	_, ok, err := kv.Get(ctx, "f1-preview-data")
	require.NoError(t, err)
	assert.True(t, ok, "readable blob must be kept")
}

func TestMerge_ReportsResetFields(t *testing.T) {
	_, reset, err := merge([]byte(`{"drivers":"oops","top5":[],"prediction":false,"standings":{"standingsData":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"drivers", "prediction", "standings"}, reset)
}

func TestStore_Load_NullCollections(t *testing.T) {
	store, kv := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, "f1-preview-data", `{"drivers":null,"top5":null,"underdogs":null}`))

	assert.Equal(t, models.NewGeneratedData(), store.Load(ctx))
}

func TestStore_BackendErrors(t *testing.T) {
	store := NewStore(LoadConfig(), brokenKV{}, logger.NewNoOpLogger())
	ctx := context.Background()

	assert.Equal(t, models.NewGeneratedData(), store.Load(ctx))

	_, err := store.Save(ctx, sampleData(), fixedNow)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageFailed))
}

func TestStore_Clear_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	kv := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "f1p:")
	store := NewStore(LoadConfig(), kv, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := store.Save(ctx, sampleData(), fixedNow)
	require.NoError(t, err)
	assert.True(t, mr.Exists("f1p:f1-preview-data"))

	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("f1p:f1-preview-data"))
	assert.Equal(t, models.NewGeneratedData(), store.Load(ctx))
}

func TestStore_Snapshot(t *testing.T) {
	store, _ := createTestStore(t)
	path := filepath.Join(t.TempDir(), "out", "preview_data.json")

	_, ok := store.LoadSnapshot(path)
	assert.False(t, ok)

	data := sampleData()
	require.NoError(t, store.WriteSnapshot(path, data))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"drivers\": {")

	loaded, ok := store.LoadSnapshot(path)
	require.True(t, ok)
	assert.Equal(t, data.Drivers, loaded.Drivers)
	assert.Equal(t, "monza", loaded.Metadata.Circuit)
	require.NotNil(t, loaded.Metadata.GeneratedAt)
	assert.Equal(t, "2025-09-05T18:30:00Z", *loaded.Metadata.GeneratedAt)

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))
	_, ok = store.LoadSnapshot(path)
	assert.False(t, ok)
}
