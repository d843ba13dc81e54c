// internal/workers/generation/generate-previews/models.go
package generatepreviews

import (
	"time"

	"f1-previews/internal/models"
)

// Run modes; "full" is a complete weekend run, the rest regenerate one part
// of an existing aggregate.
const (
	ModeFull       = "full"
	ModeDriver     = "driver"
	ModeDrivers    = "drivers"
	ModeTop5       = "top5"
	ModeUnderdogs  = "underdogs"
	ModePrediction = "prediction"
	ModeStandings  = "standings"
)

// Steps label metrics, logs and report entries.
const (
	StepRaceContext = "race-context"
	StepDriver      = "driver"
	StepTop5        = "top5"
	StepUnderdogs   = "underdogs"
	StepPrediction  = "prediction"
	StepStandings   = "standings"
	StepSave        = "save"
	StepSnapshot    = "snapshot"
	StepNotify      = "notify"
)

type Request struct {
	APIKey      string  `json:"-"`
	Model       string  `json:"model"`
	Circuit     string  `json:"circuit"`
	Date        string  `json:"date"`
	Season      string  `json:"season"`
	Temperature float64 `json:"temperature"`
}

type OutcomeStatus string

const (
	OutcomeOK       OutcomeStatus = "ok"
	OutcomeDegraded OutcomeStatus = "degraded"
	OutcomeFailed   OutcomeStatus = "failed"
)

// DriverOutcome is the result of one fan-out unit. Preview is set unless
// Status is failed, in which case Err is set.
type DriverOutcome struct {
	Driver         string                `json:"driver"`
	Status         OutcomeStatus         `json:"status"`
	Error          string                `json:"error,omitempty"`
	DegradedReason string                `json:"degradedReason,omitempty"`
	DurationMs     int64                 `json:"durationMs"`
	Preview        *models.DriverPreview `json:"-"`
	Err            error                 `json:"-"`
}

// StepError records a sequential step that failed without aborting the run.
type StepError struct {
	Step  string `json:"step"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Report summarizes one run.
type Report struct {
	RunID      string          `json:"runId"`
	Mode       string          `json:"mode"`
	Circuit    string          `json:"circuit"`
	Date       string          `json:"date"`
	Season     string          `json:"season"`
	StartedAt  time.Time       `json:"startedAt"`
	FinishedAt time.Time       `json:"finishedAt"`
	Drivers    []DriverOutcome `json:"drivers"`
	StepErrors []StepError     `json:"stepErrors,omitempty"`
}

func (r *Report) addStepError(step string, err error) {
	r.StepErrors = append(r.StepErrors, StepError{Step: step, Error: err.Error(), Err: err})
}

// StepErr returns the recorded error for step, or nil.
func (r *Report) StepErr(step string) error {
	for _, se := range r.StepErrors {
		if se.Step == step {
			return se.Err
		}
	}
	return nil
}

func (r *Report) Failed() []DriverOutcome {
	return r.filter(OutcomeFailed)
}

func (r *Report) Degraded() []DriverOutcome {
	return r.filter(OutcomeDegraded)
}

// Succeeded counts units that produced a preview, degraded or not.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Drivers {
		if o.Status != OutcomeFailed {
			n++
		}
	}
	return n
}

// Status is "ok" when nothing failed, "partial" otherwise.
func (r *Report) Status() string {
	if len(r.Failed()) == 0 && len(r.StepErrors) == 0 {
		return "ok"
	}
	return "partial"
}

func (r *Report) filter(status OutcomeStatus) []DriverOutcome {
	var out []DriverOutcome
	for _, o := range r.Drivers {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}

// Progress is reported after each settled unit; Total is drivers + 2.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Message   string `json:"message"`
}

type ProgressFunc func(Progress)
