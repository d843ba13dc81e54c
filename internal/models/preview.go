// internal/models/preview.go
package models

import "time"

type StakesLevel string

const (
	StakesHigh   StakesLevel = "high"
	StakesMedium StakesLevel = "medium"
	StakesLow    StakesLevel = "low"
)

// Degradation reasons recorded on a DriverPreview.
const (
	DegradedRepaired     = "repaired"
	DegradedUnparseable  = "unparseable"
	DegradedSchemaPrefix = "schema: "
)

// DriverPreview is the generated blurb for one driver. Degraded marks a
// preview that did not come back as valid structured output.
type DriverPreview struct {
	TLDR           string      `json:"tldr"`
	Full           string      `json:"full"`
	PerfectQuali   string      `json:"perfect_quali,omitempty"`
	PerfectRace    string      `json:"perfect_race,omitempty"`
	GoodQuali      string      `json:"good_quali,omitempty"`
	GoodRace       string      `json:"good_race,omitempty"`
	StakesLevel    StakesLevel `json:"stakes_level,omitempty"`
	KeyStrengths   []string    `json:"key_strengths,omitempty"`
	WatchFor       string      `json:"watch_for,omitempty"`
	Degraded       bool        `json:"degraded,omitempty"`
	DegradedReason string      `json:"degraded_reason,omitempty"`
}

type Top5Entry struct {
	Rank   Rank   `json:"rank"`
	Driver string `json:"driver"`
	Reason string `json:"reason"`
	Stakes string `json:"stakes"`
}

type UnderdogEntry struct {
	Driver         string `json:"driver"`
	Title          string `json:"title"`
	Story          string `json:"story"`
	SurpriseFactor string `json:"surprise_factor"`
}

type Metadata struct {
	Circuit     string  `json:"circuit"`
	Date        string  `json:"date"`
	Season      string  `json:"season"`
	GeneratedAt *string `json:"generatedAt"`
}

type StandingsPosition struct {
	Round    int `json:"round"`
	Position int `json:"position"`
}

type DriverProgression struct {
	Positions []StandingsPosition `json:"positions"`
	Team      string              `json:"team"`
	Number    int                 `json:"number"`
}

// Standings is the round-by-round championship progression.
type Standings struct {
	StandingsData map[string]DriverProgression `json:"standingsData"`
	LatestRound   int                          `json:"latestRound"`
}

// GeneratedData is the aggregate root persisted as one blob.
type GeneratedData struct {
	Drivers     map[string]DriverPreview `json:"drivers"`
	Top5        []Top5Entry              `json:"top5"`
	Underdogs   []UnderdogEntry          `json:"underdogs"`
	RaceContext string                   `json:"raceContext"`
	Prediction  string                   `json:"prediction,omitempty"`
	Standings   *Standings               `json:"standings,omitempty"`
	Metadata    Metadata                 `json:"metadata"`
}

func NewGeneratedData() GeneratedData {
	return GeneratedData{
		Drivers:   map[string]DriverPreview{},
		Top5:      []Top5Entry{},
		Underdogs: []UnderdogEntry{},
	}
}

// Preview looks up one driver's preview. A missing name is not an error.
func (g GeneratedData) Preview(name string) (DriverPreview, bool) {
	p, ok := g.Drivers[name]
	return p, ok
}

// GeneratedTime parses metadata.generatedAt; the zero time means never.
func (g GeneratedData) GeneratedTime() time.Time {
	if g.Metadata.GeneratedAt == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, *g.Metadata.GeneratedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// StampGeneratedAt returns g with generatedAt set to now.
func (g GeneratedData) StampGeneratedAt(now time.Time) GeneratedData {
	ts := now.UTC().Format(time.RFC3339)
	return Reduce(g, SetMetadata{Metadata: Metadata{
		Circuit:     g.Metadata.Circuit,
		Date:        g.Metadata.Date,
		Season:      g.Metadata.Season,
		GeneratedAt: &ts,
	}})
}
