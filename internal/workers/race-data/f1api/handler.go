// internal/workers/race-data/f1api/handler.go
package f1api

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "f1-previews/internal/common/errors"
	httpclient "f1-previews/internal/common/http"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/models"
)

const (
	TaskType = "f1api-fetch"
	Source   = "f1api"
)

// Client reads the round-keyed f1api.dev schedule and results endpoints.
type Client struct {
	config *Config
	http   *httpclient.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger, cache httpclient.Cache) *Client {
	opts := []httpclient.Option{}
	if cache != nil {
		opts = append(opts, httpclient.WithCache(cache, config.CacheTTL))
	}
	return &Client{
		config: config,
		http:   httpclient.NewClient(Source, config.Timeout, log, opts...),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (c *Client) Name() string { return Source }

func (c *Client) url(parts ...string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.Join(parts, "/")
}

func (c *Client) Current(ctx context.Context) (*Season, error) {
	var out Season
	if err := c.http.GetJSON(ctx, c.url("current"), &out); err != nil {
		return nil, apperrors.NewUpstreamFetchFailedError(Source, err)
	}
	return &out, nil
}

func (c *Client) RaceResults(ctx context.Context, season, round int) (*RaceResults, error) {
	var out RaceResults
	if err := c.http.GetJSON(ctx, c.url(strconv.Itoa(season), strconv.Itoa(round), "race"), &out); err != nil {
		return nil, apperrors.NewUpstreamFetchFailedError(Source, err)
	}
	return &out, nil
}

func (c *Client) QualifyingResults(ctx context.Context, season, round int) (*QualyResults, error) {
	var out QualyResults
	if err := c.http.GetJSON(ctx, c.url(strconv.Itoa(season), strconv.Itoa(round), "qualy"), &out); err != nil {
		return nil, apperrors.NewUpstreamFetchFailedError(Source, err)
	}
	return &out, nil
}

// DriversChampionship returns the current standings keyed by roster name.
func (c *Client) DriversChampionship(ctx context.Context) (map[string]models.ChampionshipStanding, error) {
	var out DriversChampionship
	if err := c.http.GetJSON(ctx, c.url("current", "drivers-championship"), &out); err != nil {
		return nil, apperrors.NewUpstreamFetchFailedError(Source, err)
	}
	standings := make(map[string]models.ChampionshipStanding, len(out.DriversChampionship))
	for _, entry := range out.DriversChampionship {
		standings[models.DisplayName(entry.Driver.FullName())] = models.ChampionshipStanding{
			Position: entry.Position.Value,
			Points:   entry.Points,
		}
	}
	return standings, nil
}

// DriverResults collects race and qualifying results for the most recent
// completed rounds. A round that fails to load is skipped.
func (c *Client) DriverResults(ctx context.Context, driverNumber, season int) (models.DriverResults, error) {
	results := models.EmptyDriverResults()

	current, err := c.Current(ctx)
	if err != nil {
		return results, err
	}

	latest := 0
	circuits := make(map[int]Race, len(current.Races))
	for _, race := range current.Races {
		circuits[race.Round.Value] = race
		if race.Completed() && race.Round.Value > latest {
			latest = race.Round.Value
		}
	}

	first := latest - c.config.RecentRounds + 1
	if first < 1 {
		first = 1
	}

	for round := first; round <= latest; round++ {
		race := circuits[round]
		circuit := race.Circuit.CircuitName
		if circuit == "" {
			circuit = fmt.Sprintf("Round %d", round)
		}

		raceData, err := c.RaceResults(ctx, season, round)
		if err != nil {
			c.logger.Warn("skipping round", map[string]interface{}{"round": round, "session": models.SessionRace, "error": err.Error()})
		} else if r, ok := findRaceResult(raceData.Races.Results, driverNumber); ok {
			results.Race = append(results.Race, normalizeRace(r, circuit, race.Date(), round))
		}

		qualyData, err := c.QualifyingResults(ctx, season, round)
		if err != nil {
			c.logger.Warn("skipping round", map[string]interface{}{"round": round, "session": models.SessionQualifying, "error": err.Error()})
		} else if q, ok := findQualyResult(qualyData.Races.QualyResults, driverNumber); ok {
			results.Qualifying = append(results.Qualifying, normalizeQualy(q, circuit, race.Date(), round))
		}
	}

	return results, nil
}

// SafeDriverResults never fails; upstream errors yield empty results.
func (c *Client) SafeDriverResults(ctx context.Context, driverNumber, season int) models.DriverResults {
	results, err := c.DriverResults(ctx, driverNumber, season)
	if err != nil {
		c.logger.Error("failed to fetch driver results", map[string]interface{}{
			"driverNumber": driverNumber,
			"season":       season,
			"error":        err.Error(),
		})
		return models.EmptyDriverResults()
	}
	return results
}

// Schedule returns every weekend of the current season in round order.
func (c *Client) Schedule(ctx context.Context) ([]models.RaceWeekend, error) {
	current, err := c.Current(ctx)
	if err != nil {
		return nil, err
	}
	weekends := make([]models.RaceWeekend, 0, len(current.Races))
	for _, race := range current.Races {
		weekends = append(weekends, toWeekend(race))
	}
	sort.SliceStable(weekends, func(i, j int) bool { return weekends[i].Round < weekends[j].Round })
	return weekends, nil
}

// FindRace matches by race date, then by case-insensitive substring of the
// race or circuit name, in schedule order.
func (c *Client) FindRace(ctx context.Context, circuit string, season int, date string) (models.RaceWeekend, error) {
	current, err := c.Current(ctx)
	if err != nil {
		return models.RaceWeekend{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(circuit))
	for _, race := range current.Races {
		if date != "" && race.Date() == date {
			return toWeekend(race), nil
		}
		if needle == "" {
			continue
		}
		if strings.Contains(strings.ToLower(race.RaceName), needle) ||
			strings.Contains(strings.ToLower(race.Circuit.CircuitName), needle) {
			return toWeekend(race), nil
		}
	}
	return models.RaceWeekend{}, apperrors.NewRaceNotFoundError(circuit, strconv.Itoa(season))
}

// NextRace returns the first scheduled race on or after now's date.
func (c *Client) NextRace(ctx context.Context, now time.Time) (models.RaceWeekend, error) {
	weekends, err := c.Schedule(ctx)
	if err != nil {
		return models.RaceWeekend{}, err
	}
	today := now.UTC().Format("2006-01-02")
	for _, w := range weekends {
		if w.Date != "" && w.Date >= today && !w.Completed {
			return w, nil
		}
	}
	return models.RaceWeekend{}, apperrors.NewRaceNotFoundError("next race", strconv.Itoa(now.Year()))
}

func findRaceResult(results []RaceResult, number int) (RaceResult, bool) {
	for _, r := range results {
		if r.Driver.Number.Valid && r.Driver.Number.Value == number {
			return r, true
		}
	}
	return RaceResult{}, false
}

func findQualyResult(results []QualyResult, number int) (QualyResult, bool) {
	for _, q := range results {
		if q.Driver.Number.Valid && q.Driver.Number.Value == number {
			return q, true
		}
	}
	return QualyResult{}, false
}

func normalizeRace(r RaceResult, circuit, date string, round int) models.SessionResult {
	out := models.SessionResult{
		Circuit:     circuit,
		Date:        date,
		Round:       round,
		SessionType: models.SessionRace,
		Source:      Source,
	}
	pos, err := strconv.Atoi(strings.TrimSpace(string(r.Position)))
	if err != nil {
		// NC, DQ and similar
		out.DNF = true
	} else {
		out.Position = models.IntPtr(pos)
	}
	if r.isRetired() {
		out.DNF = true
	}
	return out
}

func normalizeQualy(q QualyResult, circuit, date string, round int) models.SessionResult {
	out := models.SessionResult{
		Circuit:     circuit,
		Date:        date,
		Round:       round,
		SessionType: models.SessionQualifying,
		Source:      Source,
	}
	grid := strings.TrimSpace(string(q.GridPosition))
	if grid == "-" {
		out.DNS = true
		return out
	}
	if pos, err := strconv.Atoi(grid); err == nil {
		out.Position = models.IntPtr(pos)
	}
	return out
}

func toWeekend(race Race) models.RaceWeekend {
	w := models.RaceWeekend{
		Round:       race.Round.Value,
		RaceName:    race.RaceName,
		CircuitName: race.Circuit.CircuitName,
		Date:        race.Date(),
		Completed:   race.Completed(),
		Sessions:    []models.WeekendSession{},
	}
	s := race.Schedule
	for _, session := range []struct {
		name string
		at   *SessionTime
	}{
		{"FP1", s.FP1},
		{"FP2", s.FP2},
		{"FP3", s.FP3},
		{"Sprint Qualifying", s.SprintQualy},
		{"Sprint", s.SprintRace},
		{"Qualifying", s.Qualy},
		{"Race", s.Race},
	} {
		if session.at == nil || session.at.Date == "" {
			continue
		}
		w.Sessions = append(w.Sessions, models.WeekendSession{Name: session.name, Date: session.at.Date, Time: session.at.Time})
	}
	return w
}
