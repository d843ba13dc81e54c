// internal/api/drivers.go
package api

import (
	"net/http"
	"strconv"

	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/models"

	"github.com/go-chi/chi/v5"
)

type driverResponse struct {
	Name      string  `json:"name"`
	Team      string  `json:"team"`
	Number    int     `json:"number"`
	TeamColor string  `json:"teamColor"`
	Position  int     `json:"position,omitempty"`
	Points    float64 `json:"points"`
}

type driverResultsResponse struct {
	Driver  models.Driver        `json:"driver"`
	Source  string               `json:"source"`
	Season  int                  `json:"season"`
	Results models.DriverResults `json:"results"`
}

// listDrivers returns the roster ordered by championship position. Without
// standings the roster order is kept.
func (s *server) listDrivers(w http.ResponseWriter, r *http.Request) {
	standings := map[string]models.ChampionshipStanding{}
	if s.deps.Championship != nil {
		got, err := s.deps.Championship.DriversChampionship(r.Context())
		if err != nil {
			s.logger.Warn("championship unavailable, using roster order", map[string]interface{}{"error": err.Error()})
		} else {
			standings = got
		}
	}

	sorted := models.SortByChampionship(s.deps.Roster, standings)
	out := make([]driverResponse, 0, len(sorted))
	for _, d := range sorted {
		row := driverResponse{
			Name:      d.Name,
			Team:      d.Team,
			Number:    d.Number,
			TeamColor: models.TeamColors[d.Team],
		}
		if st, ok := standings[d.Name]; ok {
			row.Position = st.Position
			row.Points = st.Points
		}
		out = append(out, row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) driverResults(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		s.errors.HandleHTTPError(w, r, apperrors.NewInvalidInputError("driver number must be an integer"))
		return
	}
	driver, ok := findByNumber(s.deps.Roster, number)
	if !ok {
		s.errors.HandleHTTPError(w, r, apperrors.NewUnknownDriverError(strconv.Itoa(number)))
		return
	}

	name := r.URL.Query().Get("source")
	if name == "" {
		name = s.deps.DefaultSource
	}
	source, ok := s.deps.Results[name]
	if !ok {
		s.errors.HandleHTTPError(w, r, apperrors.NewInvalidInputError("unknown results source: "+name))
		return
	}

	season := s.deps.Season
	if v := r.URL.Query().Get("season"); v != "" {
		season, err = strconv.Atoi(v)
		if err != nil {
			s.errors.HandleHTTPError(w, r, apperrors.NewInvalidInputError("season must be an integer"))
			return
		}
	}

	writeJSON(w, http.StatusOK, driverResultsResponse{
		Driver:  driver,
		Source:  source.Name(),
		Season:  season,
		Results: source.SafeDriverResults(r.Context(), number, season),
	})
}

func (s *server) schedule(w http.ResponseWriter, r *http.Request) {
	if s.deps.Schedule == nil {
		writeJSON(w, http.StatusOK, []models.RaceWeekend{})
		return
	}
	weekends, err := s.deps.Schedule.Schedule(r.Context())
	if err != nil {
		s.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weekends)
}

func findByNumber(roster []models.Driver, number int) (models.Driver, bool) {
	for _, d := range roster {
		if d.Number == number {
			return d, true
		}
	}
	return models.Driver{}, false
}
