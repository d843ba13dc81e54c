// internal/workers/race-data/f1api/handler_test.go
package f1api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

const currentFixture = `{
  "season": 2025,
  "races": [
    {"round": 1, "raceName": "Australian Grand Prix", "circuit": {"circuitName": "Albert Park Circuit"},
     "schedule": {"race": {"date": "2025-03-16", "time": "04:00:00Z"}, "qualy": {"date": "2025-03-15", "time": "05:00:00Z"}},
     "winner": {"driverId": "norris"}},
    {"round": "2", "raceName": "Chinese Grand Prix", "circuit": {"circuitName": "Shanghai International Circuit"},
     "schedule": {"race": {"date": "2025-03-23"}, "sprintQualy": {"date": "2025-03-21"}, "sprintRace": {"date": "2025-03-22"}},
     "winner": {"driverId": "piastri"}},
    {"round": 3, "raceName": "Japanese Grand Prix", "circuit": {"circuitName": "Suzuka Circuit"},
     "schedule": {"race": {"date": "2025-04-06"}, "fp1": {"date": "2025-04-04", "time": "02:30:00Z"}},
     "winner": null}
  ]
}`

const round1Race = `{"races": {"round": 1, "results": [
  {"position": 1, "points": 25, "retired": null, "driver": {"number": 4, "name": "Lando", "surname": "Norris"}, "team": {"teamName": "McLaren Formula 1 Team"}},
  {"position": "NC", "points": 0, "retired": null, "driver": {"number": 81, "name": "Oscar", "surname": "Piastri"}, "team": {"teamName": "McLaren Formula 1 Team"}}
]}}`

const round2Race = `{"races": {"round": 2, "results": [
  {"position": 1, "points": 25, "retired": null, "driver": {"number": 81, "name": "Oscar", "surname": "Piastri"}, "team": {"teamName": "McLaren Formula 1 Team"}},
  {"position": 18, "points": 0, "retired": "Hydraulics", "driver": {"number": 4, "name": "Lando", "surname": "Norris"}, "team": {"teamName": "McLaren Formula 1 Team"}}
]}}`

const round1Qualy = `{"races": {"qualyResults": [
  {"gridPosition": 1, "driver": {"number": 4, "name": "Lando", "surname": "Norris"}},
  {"gridPosition": "-", "driver": {"number": 81, "name": "Oscar", "surname": "Piastri"}}
]}}`

func fixtureServer(t *testing.T, routes map[string]string) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func createTestClient(t *testing.T, routes map[string]string) (*Client, *int64) {
	server, hits := fixtureServer(t, routes)
	cfg := LoadConfig()
	cfg.BaseURL = server.URL
	return NewClient(cfg, logger.NewTestLogger(t), nil), hits
}

func defaultRoutes() map[string]string {
	return map[string]string{
		"/current":      currentFixture,
		"/2025/1/race":  round1Race,
		"/2025/2/race":  round2Race,
		"/2025/1/qualy": round1Qualy,
		"/2025/2/qualy": `{"races": {"qualyResults": []}}`,
		"/current/drivers-championship": `{"drivers_championship": [
			{"position": 1, "points": 44, "driver": {"name": "Oscar", "surname": "Piastri"}},
			{"position": 2, "points": 25, "driver": {"name": "Andrea Kimi", "surname": "Antonelli"}}
		]}`,
	}
}

func TestClient_DriverResults_Normalizes(t *testing.T) {
	client, _ := createTestClient(t, defaultRoutes())

	piastri, err := client.DriverResults(context.Background(), 81, 2025)
	require.NoError(t, err)

	require.Len(t, piastri.Race, 2)
	assert.Nil(t, piastri.Race[0].Position)
	assert.True(t, piastri.Race[0].DNF)
	assert.Equal(t, "Albert Park Circuit", piastri.Race[0].Circuit)
	assert.Equal(t, "2025-03-16", piastri.Race[0].Date)
	assert.Equal(t, 1, piastri.Race[0].Round)
	assert.Equal(t, models.IntPtr(1), piastri.Race[1].Position)
	assert.False(t, piastri.Race[1].DNF)

	require.Len(t, piastri.Qualifying, 1)
	assert.True(t, piastri.Qualifying[0].DNS)
	assert.Nil(t, piastri.Qualifying[0].Position)

	norris, err := client.DriverResults(context.Background(), 4, 2025)
	require.NoError(t, err)
	require.Len(t, norris.Race, 2)
	assert.Equal(t, models.IntPtr(18), norris.Race[1].Position)
	assert.True(t, norris.Race[1].DNF, "retired counts as DNF")
	require.Len(t, norris.Qualifying, 1)
	assert.Equal(t, models.IntPtr(1), norris.Qualifying[0].Position)
	assert.Equal(t, Source, norris.Qualifying[0].Source)
}

func TestClient_DriverResults_SkipsFailedRounds(t *testing.T) {
	routes := defaultRoutes()
	delete(routes, "/2025/1/race")
	client, _ := createTestClient(t, routes)

	results, err := client.DriverResults(context.Background(), 81, 2025)
	require.NoError(t, err)
	require.Len(t, results.Race, 1)
	assert.Equal(t, 2, results.Race[0].Round)
}

func TestClient_DriverResults_RecentRoundsWindow(t *testing.T) {
	routes := defaultRoutes()
	client, _ := createTestClient(t, routes)
	client.config.RecentRounds = 1

	results, err := client.DriverResults(context.Background(), 81, 2025)
	require.NoError(t, err)
	require.Len(t, results.Race, 1)
	assert.Equal(t, 2, results.Race[0].Round)
	assert.Empty(t, results.Qualifying)
}

func TestClient_SafeDriverResults_EmptyOnFailure(t *testing.T) {
	client, _ := createTestClient(t, map[string]string{})

	_, err := client.DriverResults(context.Background(), 81, 2025)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUpstreamFetchFailed))

	results := client.SafeDriverResults(context.Background(), 81, 2025)
	assert.Equal(t, models.EmptyDriverResults(), results)
}

func TestClient_FindRace(t *testing.T) {
	client, _ := createTestClient(t, defaultRoutes())
	ctx := context.Background()

	tests := []struct {
		name      string
		circuit   string
		date      string
		wantRound int
		wantErr   bool
	}{
		{name: "by date", circuit: "nowhere", date: "2025-03-23", wantRound: 2},
		{name: "by race name", circuit: "japanese", wantRound: 3},
		{name: "by circuit name", circuit: "ALBERT PARK", wantRound: 1},
		{name: "not found", circuit: "monaco", date: "2025-05-25", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race, err := client.FindRace(ctx, tt.circuit, 2025, tt.date)
			if tt.wantErr {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRaceNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRound, race.Round)
		})
	}
}

func TestClient_ScheduleAndNextRace(t *testing.T) {
	client, _ := createTestClient(t, defaultRoutes())
	ctx := context.Background()

	schedule, err := client.Schedule(ctx)
	require.NoError(t, err)
	require.Len(t, schedule, 3)
	assert.True(t, schedule[0].Completed)
	assert.Equal(t, []models.WeekendSession{
		{Name: "Sprint Qualifying", Date: "2025-03-21"},
		{Name: "Sprint", Date: "2025-03-22"},
		{Name: "Race", Date: "2025-03-23"},
	}, schedule[1].Sessions)

	next, err := client.NextRace(ctx, time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// round 2 already has a winner
	assert.Equal(t, "Japanese Grand Prix", next.RaceName)

	_, err = client.NextRace(ctx, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRaceNotFound))
}

func TestClient_DriversChampionship(t *testing.T) {
	client, _ := createTestClient(t, defaultRoutes())

	standings, err := client.DriversChampionship(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ChampionshipStanding{Position: 1, Points: 44}, standings["Oscar Piastri"])
	assert.Equal(t, models.ChampionshipStanding{Position: 2, Points: 25}, standings["Kimi Antonelli"])
}

func TestClient_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")

	server, hits := fixtureServer(t, defaultRoutes())
	cfg := LoadConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg, logger.NewTestLogger(t), cache)

	_, err := client.Current(context.Background())
	require.NoError(t, err)
	_, err = client.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(hits))
}
