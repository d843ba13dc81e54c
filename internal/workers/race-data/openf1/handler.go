// internal/workers/race-data/openf1/handler.go
package openf1

import (
	"context"
	"net/url"
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
	TaskType = "openf1-fetch"
	Source   = "openf1"
)

// Client reads the session-keyed OpenF1 endpoints.
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

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := strings.TrimRight(c.config.BaseURL, "/") + "/" + path + "?" + query.Encode()
	if err := c.http.GetJSON(ctx, u, out); err != nil {
		return apperrors.NewUpstreamFetchFailedError(Source, err)
	}
	return nil
}

// Sessions lists sessions of one type for a year in upstream order.
func (c *Client) Sessions(ctx context.Context, sessionType string, year int) ([]Session, error) {
	var out []Session
	q := url.Values{"session_type": {sessionType}, "year": {strconv.Itoa(year)}}
	if err := c.get(ctx, "sessions", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) LatestSession(ctx context.Context, sessionType string, year int) (Session, error) {
	sessions, err := c.Sessions(ctx, sessionType, year)
	if err != nil {
		return Session{}, err
	}
	if len(sessions) == 0 {
		return Session{}, apperrors.NewRaceNotFoundError(sessionType, strconv.Itoa(year))
	}
	return sessions[len(sessions)-1], nil
}

// SessionResults returns the driver's classified result for each of the
// most recent sessions of sessionType, oldest first.
func (c *Client) SessionResults(ctx context.Context, driverNumber int, sessionType string, year int) ([]models.SessionResult, error) {
	sessions, err := c.Sessions(ctx, sessionType, year)
	if err != nil {
		return nil, err
	}

	results := []models.SessionResult{}
	for _, session := range tail(sessions, c.config.RecentSessions) {
		var rows []SessionResult
		q := url.Values{
			"session_key":   {strconv.Itoa(session.SessionKey)},
			"driver_number": {strconv.Itoa(driverNumber)},
		}
		if err := c.get(ctx, "session_result", q, &rows); err != nil {
			c.logger.Warn("skipping session", map[string]interface{}{"sessionKey": session.SessionKey, "error": err.Error()})
			continue
		}
		if len(rows) == 0 {
			continue
		}
		row := rows[0]
		results = append(results, models.SessionResult{
			Circuit:     session.CircuitShortName,
			Position:    row.Position,
			DNF:         row.DNF,
			DNS:         row.DNS,
			Date:        session.DateStart,
			SessionType: sessionType,
			Source:      Source,
		})
	}

	sortByDate(results)
	return results, nil
}

// Positions returns the driver's final running position in each of the
// most recent races.
func (c *Client) Positions(ctx context.Context, driverNumber, year int) ([]models.SessionResult, error) {
	sessions, err := c.Sessions(ctx, models.SessionRace, year)
	if err != nil {
		return nil, err
	}

	results := []models.SessionResult{}
	for _, session := range tail(sessions, c.config.RecentRaces) {
		var rows []Position
		q := url.Values{
			"session_key":   {strconv.Itoa(session.SessionKey)},
			"driver_number": {strconv.Itoa(driverNumber)},
		}
		if err := c.get(ctx, "position", q, &rows); err != nil {
			c.logger.Warn("skipping session", map[string]interface{}{"sessionKey": session.SessionKey, "error": err.Error()})
			continue
		}
		if len(rows) == 0 {
			continue
		}
		final := rows[len(rows)-1]
		results = append(results, models.SessionResult{
			Circuit:     session.CircuitShortName,
			Position:    models.IntPtr(final.Position),
			Date:        session.DateStart,
			SessionType: models.SessionRace,
			Source:      Source,
		})
	}
	return results, nil
}

func (c *Client) StartingGrid(ctx context.Context, sessionKey int) ([]GridEntry, error) {
	var out []GridEntry
	q := url.Values{"session_key": {strconv.Itoa(sessionKey)}}
	if err := c.get(ctx, "starting_grid", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DriverResults(ctx context.Context, driverNumber, season int) (models.DriverResults, error) {
	qualifying, err := c.SessionResults(ctx, driverNumber, models.SessionQualifying, season)
	if err != nil {
		return models.EmptyDriverResults(), err
	}
	race, err := c.SessionResults(ctx, driverNumber, models.SessionRace, season)
	if err != nil {
		return models.EmptyDriverResults(), err
	}
	return models.DriverResults{Qualifying: qualifying, Race: race}, nil
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

func tail(sessions []Session, n int) []Session {
	if n <= 0 || len(sessions) <= n {
		return sessions
	}
	return sessions[len(sessions)-n:]
}

func sortByDate(results []models.SessionResult) {
	parse := func(s string) time.Time {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	sort.SliceStable(results, func(i, j int) bool {
		return parse(results[i].Date).Before(parse(results[j].Date))
	})
}
