// internal/workers/race-data/standings/handler.go
package standings

import (
	"context"
	"sort"

	"f1-previews/internal/common/logger"
	"f1-previews/internal/models"
	"f1-previews/internal/workers/race-data/f1api"
)

const TaskType = "build-standings"

// RaceSource is the subset of the f1api client the builder reads.
type RaceSource interface {
	Current(ctx context.Context) (*f1api.Season, error)
	RaceResults(ctx context.Context, season, round int) (*f1api.RaceResults, error)
}

// Builder computes the round-by-round championship progression from race
// points alone.
type Builder struct {
	config *Config
	source RaceSource
	logger logger.Logger
}

func NewBuilder(config *Config, source RaceSource, log logger.Logger) *Builder {
	return &Builder{
		config: config,
		source: source,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

type tally struct {
	name   string
	points float64
}

// Build walks rounds 1..latest, where latest is the number of races with a
// winner. Rounds that fail to load are skipped.
func (b *Builder) Build(ctx context.Context, season int) (*models.Standings, error) {
	if season == 0 {
		season = b.config.Season
	}

	current, err := b.source.Current(ctx)
	if err != nil {
		return nil, err
	}

	latest := 0
	for _, race := range current.Races {
		if race.Completed() {
			latest++
		}
	}
	b.logger.Info("building standings", map[string]interface{}{"season": season, "latestRound": latest})

	// insertion order breaks ties
	var order []*tally
	byName := map[string]*tally{}
	data := map[string]models.DriverProgression{}

	for round := 1; round <= latest; round++ {
		raceData, err := b.source.RaceResults(ctx, season, round)
		if err != nil {
			b.logger.Warn("skipping round", map[string]interface{}{"round": round, "error": err.Error()})
			continue
		}
		if len(raceData.Races.Results) == 0 {
			continue
		}

		for _, result := range raceData.Races.Results {
			name := models.DisplayName(result.Driver.FullName())
			t, ok := byName[name]
			if !ok {
				t = &tally{name: name}
				byName[name] = t
				order = append(order, t)
			}
			t.points += result.Points

			if _, ok := data[name]; !ok {
				data[name] = models.DriverProgression{
					Positions: []models.StandingsPosition{},
					Team:      result.Team.TeamName,
					Number:    result.Driver.Number.Value,
				}
			}
		}

		ranked := make([]*tally, len(order))
		copy(ranked, order)
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].points > ranked[j].points })

		for idx, t := range ranked {
			progression := data[t.name]
			progression.Positions = append(progression.Positions, models.StandingsPosition{Round: round, Position: idx + 1})
			data[t.name] = progression
		}
	}

	return &models.Standings{StandingsData: data, LatestRound: latest}, nil
}
