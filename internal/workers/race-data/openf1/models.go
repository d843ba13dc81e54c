// internal/workers/race-data/openf1/models.go
package openf1

type Session struct {
	SessionKey       int    `json:"session_key"`
	MeetingKey       int    `json:"meeting_key"`
	SessionName      string `json:"session_name"`
	SessionType      string `json:"session_type"`
	DateStart        string `json:"date_start"`
	CircuitShortName string `json:"circuit_short_name"`
	CountryName      string `json:"country_name"`
	Year             int    `json:"year"`
}

type SessionResult struct {
	SessionKey   int  `json:"session_key"`
	DriverNumber int  `json:"driver_number"`
	Position     *int `json:"position"`
	DNF          bool `json:"dnf"`
	DNS          bool `json:"dns"`
	DSQ          bool `json:"dsq"`
}

type Position struct {
	SessionKey   int    `json:"session_key"`
	DriverNumber int    `json:"driver_number"`
	Date         string `json:"date"`
	Position     int    `json:"position"`
}

type GridEntry struct {
	SessionKey   int      `json:"session_key"`
	DriverNumber int      `json:"driver_number"`
	Position     int      `json:"position"`
	LapDuration  *float64 `json:"lap_duration"`
}
