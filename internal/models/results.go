// internal/models/results.go
package models

// Session types used when querying results.
const (
	SessionQualifying       = "Qualifying"
	SessionRace             = "Race"
	SessionSprint           = "Sprint"
	SessionSprintQualifying = "Sprint Qualifying"
)

// SessionResult is one driver's result in one session, normalized from
// whichever upstream produced it. Position is nil when the driver was not
// classified.
type SessionResult struct {
	Circuit     string `json:"circuit"`
	Position    *int   `json:"position"`
	DNF         bool   `json:"dnf"`
	DNS         bool   `json:"dns"`
	Date        string `json:"date,omitempty"`
	Round       int    `json:"round,omitempty"`
	SessionType string `json:"sessionType,omitempty"`
	Source      string `json:"source"`
}

type DriverResults struct {
	Qualifying []SessionResult `json:"qualifying"`
	Race       []SessionResult `json:"race"`
}

func EmptyDriverResults() DriverResults {
	return DriverResults{Qualifying: []SessionResult{}, Race: []SessionResult{}}
}

type WeekendSession struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

// RaceWeekend is one event from the season schedule.
type RaceWeekend struct {
	Round       int              `json:"round"`
	RaceName    string           `json:"raceName"`
	CircuitName string           `json:"circuitName"`
	Date        string           `json:"date"`
	Completed   bool             `json:"completed"`
	Sessions    []WeekendSession `json:"sessions"`
}

func IntPtr(v int) *int {
	return &v
}
