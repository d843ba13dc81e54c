// test/e2e/e2e_test.go
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"f1-previews/internal/api"
	"f1-previews/internal/common/database"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/common/validation"
	"f1-previews/internal/models"
	generatepreviews "f1-previews/internal/workers/generation/generate-previews"
	textgeneration "f1-previews/internal/workers/generation/text-generation"
	previewstore "f1-previews/internal/workers/persistence/preview-store"
	promptstore "f1-previews/internal/workers/prompts/prompt-store"
	"f1-previews/internal/workers/race-data/f1api"
	"f1-previews/internal/workers/race-data/openf1"
	"f1-previews/internal/workers/race-data/standings"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apiKey = "sk-e2e-0042"

const currentSeason = `{
  "season": 2025,
  "races": [
    {"round": 1, "raceName": "Australian Grand Prix", "circuit": {"circuitName": "Albert Park Circuit"},
     "schedule": {"race": {"date": "2025-03-16"}, "qualy": {"date": "2025-03-15"}}, "winner": {"driverId": "norris"}},
    {"round": 2, "raceName": "Chinese Grand Prix", "circuit": {"circuitName": "Shanghai International Circuit"},
     "schedule": {"race": {"date": "2025-03-23"}}, "winner": {"driverId": "piastri"}},
    {"round": 3, "raceName": "Italian Grand Prix", "circuit": {"circuitName": "Autodromo Nazionale Monza"},
     "schedule": {"race": {"date": "2025-09-07"}, "qualy": {"date": "2025-09-06"}}, "winner": null}
  ]
}`

var f1apiRoutes = map[string]string{
	"/current": currentSeason,
	"/current/drivers-championship": `{"drivers_championship": [
	  {"position": 1, "points": 43, "driver": {"name": "Oscar", "surname": "Piastri"}},
	  {"position": 2, "points": 25, "driver": {"name": "Lando", "surname": "Norris"}}
	]}`,
	"/2025/1/race": `{"races": {"round": 1, "results": [
	  {"position": 1, "points": 25, "retired": null, "driver": {"number": 4, "name": "Lando", "surname": "Norris"}, "team": {"teamName": "McLaren"}},
	  {"position": 2, "points": 18, "retired": null, "driver": {"number": 81, "name": "Oscar", "surname": "Piastri"}, "team": {"teamName": "McLaren"}}
	]}}`,
	"/2025/2/race": `{"races": {"round": 2, "results": [
	  {"position": 1, "points": 25, "retired": null, "driver": {"number": 81, "name": "Oscar", "surname": "Piastri"}, "team": {"teamName": "McLaren"}},
	  {"position": 18, "points": 0, "retired": "Hydraulics", "driver": {"number": 4, "name": "Lando", "surname": "Norris"}, "team": {"teamName": "McLaren"}}
	]}}`,
	"/2025/1/qualy": `{"races": {"qualyResults": [{"gridPosition": 1, "driver": {"number": 4, "name": "Lando", "surname": "Norris"}}]}}`,
	"/2025/2/qualy": `{"races": {"qualyResults": [{"gridPosition": 3, "driver": {"number": 4, "name": "Lando", "surname": "Norris"}}]}}`,
}

// fakeOpenAI answers the Responses endpoint by recognizing which template a
// prompt was built from.
type fakeOpenAI struct {
	failDriver atomic.Value
	calls      int64
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&f.calls, 1)
	if r.Header.Get("Authorization") != "Bearer "+apiKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
		return
	}

	var body struct {
		Input string `json:"input"`
	}
	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, &body)
	prompt := body.Input

	var text string
	switch {
	case strings.HasPrefix(prompt, "Provide race weekend context"):
		text = `{"weather":"Dry, 28C","track":"Temple of speed, long straights"}`
	case strings.HasPrefix(prompt, `Write a "what to look for with `):
		name := strings.TrimPrefix(prompt, `Write a "what to look for with `)
		name = name[:strings.Index(name, `"`)]
		if fail, _ := f.failDriver.Load().(string); fail == name {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"The server had an error"}}`))
			return
		}
		text = fmt.Sprintf(`{"tldr":"%s has a shot (autosport.com).","full":"## Current Form\nSteady.\n\n## Circuit\nLow drag.","stakes_level":"medium","key_strengths":["slipstream"],"watch_for":"Lap 1 at the Rettifilo"}`, name)
	case strings.HasPrefix(prompt, "Based on these driver previews"):
		text = `{"top5":[{"rank":2,"driver":"Lando Norris","reason":"Home of speed","stakes":"title"},{"rank":1,"driver":"Oscar Piastri","reason":"Leads the title","stakes":"title"}]}`
	case strings.HasPrefix(prompt, "Identify 3 UNDERDOG"):
		text = `[{"driver":"Alex Albon","title":"Williams on the straights","story":"Low drag suits them.","surprise_factor":"Top speed"}]`
	case strings.HasPrefix(prompt, "Based on these detailed driver previews"):
		text = "1. **Qualifying Top 3** - Piastri, Norris, Leclerc (formula1.com)"
	default:
		text = "unexpected prompt"
	}

	resp, _ := json.Marshal(map[string]interface{}{
		"status": "completed",
		"output": []interface{}{
			map[string]interface{}{"type": "message", "content": []interface{}{
				map[string]interface{}{"type": "output_text", "text": text},
			}},
		},
	})
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(resp)
}

type pipeline struct {
	router   http.Handler
	openai   *fakeOpenAI
	previews *previewstore.Store
	redis    *miniredis.Miniredis
	snapshot string
	f1Hits   *int64
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	kv := database.NewRedisFromClient(rdb, "f1p:")

	var f1Hits int64
	f1Server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&f1Hits, 1)
		body, ok := f1apiRoutes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f1Server.Close)

	of1Server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(of1Server.Close)

	openai := &fakeOpenAI{}
	openai.failDriver.Store("Yuki Tsunoda")
	aiServer := httptest.NewServer(openai)
	t.Cleanup(aiServer.Close)

	f1Cfg := f1api.LoadConfig()
	f1Cfg.BaseURL = f1Server.URL
	f1Client := f1api.NewClient(f1Cfg, log, kv)

	of1Cfg := openf1.LoadConfig()
	of1Cfg.BaseURL = of1Server.URL
	of1Client := openf1.NewClient(of1Cfg, log, kv)

	textCfg := textgeneration.LoadConfig()
	textCfg.BaseURL = aiServer.URL

	prompts := promptstore.NewStore(promptstore.LoadConfig(), kv, log)
	previews := previewstore.NewStore(previewstore.LoadConfig(), kv, log)

	validator, err := validation.NewDefaultValidator()
	require.NoError(t, err)

	snapshot := filepath.Join(t.TempDir(), "out", "preview_data.json")
	genCfg := generatepreviews.LoadConfig()
	genCfg.MaxConcurrency = 4
	genCfg.PredictionEnabled = true
	genCfg.SnapshotPath = snapshot

	generator := generatepreviews.NewGenerator(genCfg, generatepreviews.Dependencies{
		Prompts:   prompts,
		Client:    textgeneration.NewClient(textCfg, log),
		Store:     previews,
		Schedule:  f1Client,
		Standings: standings.NewBuilder(standings.LoadConfig(), f1Client, log),
		Validator: validator,
	}, log)

	router := api.NewRouter(api.Deps{
		Previews:      previews,
		Pipeline:      generator,
		Prompts:       prompts,
		Results:       map[string]api.ResultsSource{f1Client.Name(): f1Client, of1Client.Name(): of1Client},
		DefaultSource: f1Client.Name(),
		Schedule:      f1Client,
		Championship:  f1Client,
		Season:        2025,
		Logger:        log,
	})

	return &pipeline{router: router, openai: openai, previews: previews, redis: mr, snapshot: snapshot, f1Hits: &f1Hits}
}

func (p *pipeline) do(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

type generateResult struct {
	Data   models.GeneratedData    `json:"data"`
	Report generatepreviews.Report `json:"report"`
}

func TestPreviewPipeline_EndToEnd(t *testing.T) {
	p := newPipeline(t)

	// nothing happens without a key
	assert.Equal(t, http.StatusBadRequest, p.do(t, http.MethodPost, "/api/previews/generate", `{}`, nil))
	assert.Zero(t, atomic.LoadInt64(&p.openai.calls))

	require.Equal(t, http.StatusOK, p.do(t, http.MethodPut, "/api/settings", `{"apiKey":"`+apiKey+`","model":"gpt-5"}`, nil))

	var run generateResult
	status := p.do(t, http.MethodPost, "/api/previews/generate", `{"circuit":"Monza","date":"2025-09-07","season":"2025"}`, &run)
	require.Equal(t, http.StatusOK, status)

	// one driver failed upstream, the rest landed
	assert.Equal(t, "partial", run.Report.Status())
	require.Len(t, run.Report.Failed(), 1)
	assert.Equal(t, "Yuki Tsunoda", run.Report.Failed()[0].Driver)
	assert.Len(t, run.Data.Drivers, len(models.Roster2025)-1)
	assert.NotContains(t, run.Data.Drivers, "Yuki Tsunoda")
	assert.Equal(t, "Lando Norris has a shot.", run.Data.Drivers["Lando Norris"].TLDR)

	require.Len(t, run.Data.Top5, 2)
	assert.Equal(t, "Oscar Piastri", run.Data.Top5[0].Driver)
	require.Len(t, run.Data.Underdogs, 1)
	assert.Equal(t, "1. **Qualifying Top 3** - Piastri, Norris, Leclerc", run.Data.Prediction)
	assert.Contains(t, run.Data.RaceContext, "Temple of speed")
	assert.Equal(t, "Monza", run.Data.Metadata.Circuit)
	require.NotNil(t, run.Data.Metadata.GeneratedAt)

	require.NotNil(t, run.Data.Standings)
	assert.Equal(t, 2, run.Data.Standings.LatestRound)
	assert.Equal(t, []models.StandingsPosition{{Round: 1, Position: 2}, {Round: 2, Position: 1}},
		run.Data.Standings.StandingsData["Oscar Piastri"].Positions)

	// persisted in redis and mirrored to the snapshot file
	assert.True(t, p.redis.Exists("f1p:f1-preview-data"))
	snap, ok := p.previews.LoadSnapshot(p.snapshot)
	require.True(t, ok)
	assert.Len(t, snap.Drivers, len(models.Roster2025)-1)

	var preview struct {
		Driver  string               `json:"driver"`
		Preview models.DriverPreview `json:"preview"`
	}
	assert.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/previews/drivers/Lando%20Norris", "", &preview))
	assert.Equal(t, "Lap 1 at the Rettifilo", preview.Preview.WatchFor)
	assert.Equal(t, http.StatusNotFound, p.do(t, http.MethodGet, "/api/previews/drivers/Yuki%20Tsunoda", "", nil))

	// the failed driver is fixed by a single-driver rerun
	p.openai.failDriver.Store("")
	var rerun generateResult
	require.Equal(t, http.StatusOK, p.do(t, http.MethodPost, "/api/previews/generate", `{"mode":"driver","driver":"Yuki Tsunoda"}`, &rerun))
	assert.Equal(t, "ok", rerun.Report.Status())
	assert.Len(t, rerun.Data.Drivers, len(models.Roster2025))
	assert.Equal(t, run.Data.Top5, rerun.Data.Top5)
	assert.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/previews/drivers/Yuki%20Tsunoda", "", nil))
}

func TestPreviewPipeline_RaceDataEndpoints(t *testing.T) {
	p := newPipeline(t)

	var results struct {
		Source  string               `json:"source"`
		Results models.DriverResults `json:"results"`
	}
	require.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/drivers/4/results", "", &results))
	assert.Equal(t, "f1api", results.Source)
	require.Len(t, results.Results.Race, 2)
	assert.Len(t, results.Results.Qualifying, 2)

	var dnf bool
	for _, r := range results.Results.Race {
		if r.Circuit == "Shanghai International Circuit" {
			dnf = r.DNF
		}
	}
	assert.True(t, dnf, "retired result is a DNF")

	// openf1 has no sessions in this fixture, so results are empty
	require.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/drivers/4/results?source=openf1", "", &results))
	assert.Empty(t, results.Results.Race)

	var drivers []struct {
		Name     string `json:"name"`
		Position int    `json:"position"`
	}
	require.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/drivers", "", &drivers))
	assert.Equal(t, "Oscar Piastri", drivers[0].Name)
	assert.Equal(t, "Lando Norris", drivers[1].Name)

	var weekends []models.RaceWeekend
	require.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/schedule", "", &weekends))
	require.Len(t, weekends, 3)
	assert.False(t, weekends[2].Completed)

	// repeated schedule reads are served from the redis cache
	before := atomic.LoadInt64(p.f1Hits)
	require.Equal(t, http.StatusOK, p.do(t, http.MethodGet, "/api/schedule", "", &weekends))
	assert.Equal(t, before, atomic.LoadInt64(p.f1Hits))
}
