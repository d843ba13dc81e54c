// internal/workers/race-data/f1api/models.go
package f1api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Int decodes a JSON number or numeric string. Anything else decodes to
// zero with Valid unset.
type Int struct {
	Value int
	Valid bool
}

func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int{}
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		*i = Int{Value: v, Valid: true}
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*i = Int{Value: int(f), Valid: true}
	}
	return nil
}

func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(i.Value)), nil
}

// Text decodes a JSON string or number into its string form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	*t = Text(data)
	return nil
}

type SessionTime struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type Schedule struct {
	Race        *SessionTime `json:"race"`
	Qualy       *SessionTime `json:"qualy"`
	FP1         *SessionTime `json:"fp1"`
	FP2         *SessionTime `json:"fp2"`
	FP3         *SessionTime `json:"fp3"`
	SprintQualy *SessionTime `json:"sprintQualy"`
	SprintRace  *SessionTime `json:"sprintRace"`
}

type Circuit struct {
	CircuitID   string `json:"circuitId"`
	CircuitName string `json:"circuitName"`
	Country     string `json:"country"`
	City        string `json:"city"`
}

type Race struct {
	RaceID   string          `json:"raceId"`
	Round    Int             `json:"round"`
	RaceName string          `json:"raceName"`
	Schedule Schedule        `json:"schedule"`
	Circuit  Circuit         `json:"circuit"`
	Winner   json.RawMessage `json:"winner"`
}

// Completed reports whether the race has a winner recorded.
func (r Race) Completed() bool {
	w := bytes.TrimSpace(r.Winner)
	return len(w) > 0 && string(w) != "null"
}

// Date is the race-day date, empty when unscheduled.
func (r Race) Date() string {
	if r.Schedule.Race == nil {
		return ""
	}
	return r.Schedule.Race.Date
}

// Season is the /current response.
type Season struct {
	Season Int    `json:"season"`
	Races  []Race `json:"races"`
}

type Driver struct {
	DriverID  string `json:"driverId"`
	Number    Int    `json:"number"`
	ShortName string `json:"shortName"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
}

func (d Driver) FullName() string {
	return strings.TrimSpace(d.Name + " " + d.Surname)
}

type Team struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

type RaceResult struct {
	Position Text            `json:"position"`
	Points   float64         `json:"points"`
	Grid     Text            `json:"grid"`
	Retired  json.RawMessage `json:"retired"`
	Driver   Driver          `json:"driver"`
	Team     Team            `json:"team"`
}

func (r RaceResult) isRetired() bool {
	v := bytes.TrimSpace(r.Retired)
	return len(v) > 0 && string(v) != "null"
}

type QualyResult struct {
	GridPosition Text   `json:"gridPosition"`
	Q1           string `json:"q1"`
	Q2           string `json:"q2"`
	Q3           string `json:"q3"`
	Driver       Driver `json:"driver"`
	Team         Team   `json:"team"`
}

// RaceResults is the /{season}/{round}/race response.
type RaceResults struct {
	Season Int `json:"season"`
	Races  struct {
		Round   Int          `json:"round"`
		Results []RaceResult `json:"results"`
	} `json:"races"`
}

// QualyResults is the /{season}/{round}/qualy response.
type QualyResults struct {
	Season Int `json:"season"`
	Races  struct {
		Round        Int           `json:"round"`
		QualyResults []QualyResult `json:"qualyResults"`
	} `json:"races"`
}

type ChampionshipEntry struct {
	Position Int     `json:"position"`
	Points   float64 `json:"points"`
	Driver   Driver  `json:"driver"`
	Team     Team    `json:"team"`
}

type DriversChampionship struct {
	Season              Int                 `json:"season"`
	DriversChampionship []ChampionshipEntry `json:"drivers_championship"`
}
