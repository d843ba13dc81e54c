// internal/workers/generation/generate-previews/handler.go
package generatepreviews

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/common/metrics"
	"f1-previews/internal/common/observability"
	"f1-previews/internal/common/validation"
	"f1-previews/internal/models"
	textgeneration "f1-previews/internal/workers/generation/text-generation"
	promptstore "f1-previews/internal/workers/prompts/prompt-store"
	"f1-previews/pkg/registry"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const TaskType = "generate-previews"

type PromptSource interface {
	All(ctx context.Context) (map[promptstore.PromptID]string, error)
}

type Persister interface {
	Save(ctx context.Context, data models.GeneratedData, now time.Time) (models.GeneratedData, error)
	WriteSnapshot(path string, data models.GeneratedData) error
}

type ScheduleSource interface {
	NextRace(ctx context.Context, now time.Time) (models.RaceWeekend, error)
}

type StandingsBuilder interface {
	Build(ctx context.Context, season int) (*models.Standings, error)
}

type Notifier interface {
	RunCompleted(ctx context.Context, report *Report) error
}

// Dependencies wires the generator. Prompts, Client and Store are
// required; the rest may be nil.
type Dependencies struct {
	Prompts       PromptSource
	Client        textgeneration.Generator
	Store         Persister
	Schedule      ScheduleSource
	Standings     StandingsBuilder
	Notifier      Notifier
	Validator     *validation.Validator
	Observability *observability.Observability
}

// Generator runs the weekend preview pipeline: race context, a bounded
// parallel fan-out over the roster, then the aggregate steps.
type Generator struct {
	config *Config
	deps   Dependencies
	logger logger.Logger
	now    func() time.Time
}

func NewGenerator(config *Config, deps Dependencies, log logger.Logger) *Generator {
	return &Generator{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// Generate runs a full weekend generation over state and persists the
// result. On error the returned aggregate holds whatever was folded in
// before the failure.
func (g *Generator) Generate(ctx context.Context, req Request, state models.GeneratedData, progress ProgressFunc) (models.GeneratedData, *Report, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return state, nil, apperrors.NewMissingCredentialError()
	}

	req, err := g.resolveRace(ctx, req)
	if err != nil {
		return state, nil, err
	}

	templates, err := g.deps.Prompts.All(ctx)
	if err != nil {
		return state, nil, err
	}

	report := g.startReport(ModeFull, req)
	log := g.logger.WithFields(map[string]interface{}{"runId": report.RunID, "circuit": req.Circuit, "date": req.Date})
	log.Info("starting generation run", map[string]interface{}{"drivers": len(g.config.Roster), "model": req.Model})

	metrics.GenerationsActive.Inc()
	defer metrics.GenerationsActive.Dec()

	tracker := newTracker(len(g.config.Roster)+2, progress)
	tracker.report("Fetching race weekend context...")

	raceContext, err := g.complete(ctx, req, StepRaceContext, raceContextPrompt(templates[promptstore.PromptRaceContext], req), textgeneration.FormatJSONObject)
	if err != nil {
		report.addStepError(StepRaceContext, err)
		g.finishReport(ctx, report, "failed")
		log.Error("race context failed, aborting run", map[string]interface{}{"error": err.Error()})
		return state, report, apperrors.NewRaceContextFailedError(err)
	}
	state = models.Reduce(state, models.SetRaceContext{RaceContext: raceContext})

	tracker.report("Generating all driver previews in parallel...")
	sessionContext := SessionContext(g.config.SessionResults)
	report.Drivers = g.generateDrivers(ctx, req, g.config.Roster, templates[promptstore.PromptDriverPreview], raceContext, sessionContext, tracker)
	state = foldOutcomes(state, report.Drivers)

	if err := ctx.Err(); err != nil {
		g.finishReport(ctx, report, "cancelled")
		return state, report, err
	}

	state = g.runTop5(ctx, req, state, templates[promptstore.PromptTop5], report, false)
	tracker.tick("Analyzing top 5 drivers to watch...")

	state = g.runUnderdogs(ctx, req, state, templates[promptstore.PromptUnderdogs], report, false)
	tracker.tick("Identifying underdog stories...")

	state = models.Reduce(state, models.SetMetadata{Metadata: models.Metadata{
		Circuit:     req.Circuit,
		Date:        req.Date,
		Season:      req.Season,
		GeneratedAt: state.Metadata.GeneratedAt,
	}})

	if g.config.PredictionEnabled {
		state = g.runPrediction(ctx, req, state, templates[promptstore.PromptPrediction], sessionContext, report, false)
	}

	if g.deps.Standings != nil {
		state = g.runStandings(ctx, req, state, report, false)
	}

	saved, err := g.persist(ctx, state, report)
	if err != nil {
		return state, report, err
	}

	log.Info("generation run complete", map[string]interface{}{
		"succeeded": report.Succeeded(),
		"failed":    len(report.Failed()),
		"degraded":  len(report.Degraded()),
		"status":    report.Status(),
	})
	return saved, report, nil
}

// Run dispatches mode to the matching entry point. driver is only read in
// ModeDriver.
func (g *Generator) Run(ctx context.Context, mode string, req Request, state models.GeneratedData, driver string, progress ProgressFunc) (models.GeneratedData, *Report, error) {
	switch mode {
	case "", ModeFull:
		return g.Generate(ctx, req, state, progress)
	case ModeDriver:
		return g.RegenerateDriver(ctx, req, state, driver)
	case ModeDrivers:
		return g.RegenerateDrivers(ctx, req, state, progress)
	case ModeTop5:
		return g.RegenerateTop5(ctx, req, state)
	case ModeUnderdogs:
		return g.RegenerateUnderdogs(ctx, req, state)
	case ModePrediction:
		return g.RegeneratePrediction(ctx, req, state)
	case ModeStandings:
		return g.RefreshStandings(ctx, state)
	default:
		return state, nil, apperrors.NewInvalidInputError("unknown mode: " + mode)
	}
}

// RegenerateDriver regenerates one driver using the stored race context.
func (g *Generator) RegenerateDriver(ctx context.Context, req Request, state models.GeneratedData, name string) (models.GeneratedData, *Report, error) {
	driver, ok := findRosterDriver(g.config.Roster, name)
	if !ok {
		return state, nil, apperrors.NewUnknownDriverError(name)
	}
	req, templates, err := g.preparePartial(ctx, req, state)
	if err != nil {
		return state, nil, err
	}

	report := g.startReport(ModeDriver, req)
	outcome := g.generateDriver(ctx, req, driver, templates[promptstore.PromptDriverPreview], state.RaceContext, SessionContext(g.config.SessionResults))
	report.Drivers = []DriverOutcome{outcome}
	if outcome.Status == OutcomeFailed {
		g.finishReport(ctx, report, "failed")
		return state, report, apperrors.NewGenerationFailedError(StepDriver, outcome.Err)
	}

	state = foldOutcomes(state, report.Drivers)
	saved, err := g.persist(ctx, state, report)
	if err != nil {
		return state, report, err
	}
	return saved, report, nil
}

// RegenerateDrivers regenerates every roster driver. Drivers that fail keep
// their previous preview.
func (g *Generator) RegenerateDrivers(ctx context.Context, req Request, state models.GeneratedData, progress ProgressFunc) (models.GeneratedData, *Report, error) {
	req, templates, err := g.preparePartial(ctx, req, state)
	if err != nil {
		return state, nil, err
	}

	report := g.startReport(ModeDrivers, req)
	metrics.GenerationsActive.Inc()
	defer metrics.GenerationsActive.Dec()

	tracker := newTracker(len(g.config.Roster), progress)
	report.Drivers = g.generateDrivers(ctx, req, g.config.Roster, templates[promptstore.PromptDriverPreview], state.RaceContext, SessionContext(g.config.SessionResults), tracker)
	state = foldOutcomes(state, report.Drivers)

	if err := ctx.Err(); err != nil {
		g.finishReport(ctx, report, "cancelled")
		return state, report, err
	}

	saved, err := g.persist(ctx, state, report)
	if err != nil {
		return state, report, err
	}
	return saved, report, nil
}

func (g *Generator) RegenerateTop5(ctx context.Context, req Request, state models.GeneratedData) (models.GeneratedData, *Report, error) {
	return g.partialStep(ctx, req, state, ModeTop5, func(req Request, templates map[promptstore.PromptID]string, report *Report) models.GeneratedData {
		return g.runTop5(ctx, req, state, templates[promptstore.PromptTop5], report, true)
	})
}

func (g *Generator) RegenerateUnderdogs(ctx context.Context, req Request, state models.GeneratedData) (models.GeneratedData, *Report, error) {
	return g.partialStep(ctx, req, state, ModeUnderdogs, func(req Request, templates map[promptstore.PromptID]string, report *Report) models.GeneratedData {
		return g.runUnderdogs(ctx, req, state, templates[promptstore.PromptUnderdogs], report, true)
	})
}

func (g *Generator) RegeneratePrediction(ctx context.Context, req Request, state models.GeneratedData) (models.GeneratedData, *Report, error) {
	return g.partialStep(ctx, req, state, ModePrediction, func(req Request, templates map[promptstore.PromptID]string, report *Report) models.GeneratedData {
		return g.runPrediction(ctx, req, state, templates[promptstore.PromptPrediction], SessionContext(g.config.SessionResults), report, true)
	})
}

// RefreshStandings rebuilds the championship progression. It needs no
// credential.
func (g *Generator) RefreshStandings(ctx context.Context, state models.GeneratedData) (models.GeneratedData, *Report, error) {
	if g.deps.Standings == nil {
		return state, nil, apperrors.NewInvalidInputError("no standings source configured")
	}
	req := Request{
		Circuit: state.Metadata.Circuit,
		Date:    state.Metadata.Date,
		Season:  state.Metadata.Season,
	}
	if req.Season == "" {
		req.Season = g.config.DefaultSeason
	}

	report := g.startReport(ModeStandings, req)
	state = g.runStandings(ctx, req, state, report, true)
	if err := report.StepErr(StepStandings); err != nil {
		g.finishReport(ctx, report, "failed")
		return state, report, err
	}

	saved, err := g.persist(ctx, state, report)
	if err != nil {
		return state, report, err
	}
	return saved, report, nil
}

func (g *Generator) partialStep(ctx context.Context, req Request, state models.GeneratedData, mode string, run func(Request, map[promptstore.PromptID]string, *Report) models.GeneratedData) (models.GeneratedData, *Report, error) {
	req, templates, err := g.preparePartial(ctx, req, state)
	if err != nil {
		return state, nil, err
	}

	report := g.startReport(mode, req)
	next := run(req, templates, report)
	if err := report.StepErr(mode); err != nil {
		g.finishReport(ctx, report, "failed")
		return state, report, apperrors.NewGenerationFailedError(mode, err)
	}

	saved, err := g.persist(ctx, next, report)
	if err != nil {
		return next, report, err
	}
	return saved, report, nil
}

// preparePartial checks the credential and takes race details from the
// existing aggregate.
func (g *Generator) preparePartial(ctx context.Context, req Request, state models.GeneratedData) (Request, map[promptstore.PromptID]string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return req, nil, apperrors.NewMissingCredentialError()
	}
	if state.Metadata.Circuit == "" || state.RaceContext == "" {
		return req, nil, apperrors.NewInvalidInputError("no previous run to regenerate from; run a full generation first")
	}
	req.Circuit = state.Metadata.Circuit
	req.Date = state.Metadata.Date
	req.Season = state.Metadata.Season

	templates, err := g.deps.Prompts.All(ctx)
	if err != nil {
		return req, nil, err
	}
	return req, templates, nil
}

// resolveRace fills a missing circuit or date from the schedule.
func (g *Generator) resolveRace(ctx context.Context, req Request) (Request, error) {
	if req.Season == "" {
		req.Season = g.config.DefaultSeason
	}
	if req.Circuit != "" && req.Date != "" {
		return req, nil
	}
	if g.deps.Schedule == nil {
		return req, apperrors.NewInvalidInputError("circuit and date are required")
	}

	next, err := g.deps.Schedule.NextRace(ctx, g.now())
	if err != nil {
		g.logger.Warn("could not detect next race", map[string]interface{}{"error": err.Error()})
		return req, apperrors.NewInvalidInputError("circuit and date are required")
	}
	if req.Circuit == "" {
		req.Circuit = strings.TrimSpace(strings.TrimSuffix(next.RaceName, " Grand Prix"))
		if req.Circuit == "" {
			req.Circuit = next.CircuitName
		}
	}
	if req.Date == "" {
		req.Date = next.Date
	}
	if len(next.Date) >= 4 {
		req.Season = next.Date[:4]
	}
	g.logger.Info("detected next race", map[string]interface{}{"circuit": req.Circuit, "date": req.Date, "round": next.Round})
	return req, nil
}

func (g *Generator) complete(ctx context.Context, req Request, step, prompt string, format textgeneration.FormatType) (string, error) {
	text, err := g.deps.Client.Complete(ctx, textgeneration.Request{
		APIKey:         req.APIKey,
		Model:          req.Model,
		Prompt:         prompt,
		Temperature:    req.Temperature,
		ResponseFormat: textgeneration.ResponseFormat{Type: format},
		Step:           step,
	})
	if err != nil {
		return "", classifyCompletionError(err)
	}
	return text, nil
}

// classifyCompletionError tags timeouts and truncated responses with their
// error codes. The message text is left as the client reported it.
func classifyCompletionError(err error) error {
	switch {
	case errors.Is(err, textgeneration.ErrTimeout):
		return apperrors.NewGenerationTimeoutError(err)
	case errors.Is(err, textgeneration.ErrResponseIncomplete):
		return apperrors.NewResponseIncompleteError(err)
	}
	return err
}

// generateDrivers fans out one unit per driver. Units never cancel each
// other; results land in per-index slots.
func (g *Generator) generateDrivers(ctx context.Context, req Request, roster []models.Driver, template, raceContext, sessionContext string, tracker *tracker) []DriverOutcome {
	limit := g.config.MaxConcurrency
	if limit < 1 {
		limit = len(roster)
	}

	outcomes := make([]DriverOutcome, len(roster))
	var eg errgroup.Group
	eg.SetLimit(limit)

	for i, driver := range roster {
		i, driver := i, driver
		eg.Go(func() error {
			outcomes[i] = g.generateDriver(ctx, req, driver, template, raceContext, sessionContext)
			tracker.tick("Generated " + driver.Name)
			return nil
		})
	}
	_ = eg.Wait()

	return outcomes
}

func (g *Generator) generateDriver(ctx context.Context, req Request, driver models.Driver, template, raceContext, sessionContext string) DriverOutcome {
	start := time.Now()
	outcome := DriverOutcome{Driver: driver.Name}

	text, err := g.complete(ctx, req, StepDriver, driverPrompt(template, driver, req, raceContext, sessionContext), textgeneration.FormatJSONObject)
	outcome.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		outcome.Status = OutcomeFailed
		outcome.Err = err
		outcome.Error = err.Error()
		g.logger.Error("driver preview failed", map[string]interface{}{"driver": driver.Name, "error": err.Error()})
		g.deps.Observability.RecordDriverOutcome(ctx, string(OutcomeFailed))
		return outcome
	}

	preview, raw := parseDriverPreview(text)
	if raw != nil && g.deps.Validator != nil {
		if result := g.deps.Validator.Validate(registry.SchemaDriverPreview, raw); !result.Valid {
			preview.Degraded = true
			preview.DegradedReason = models.DegradedSchemaPrefix + result.Summary()
		}
	}

	outcome.Preview = &preview
	outcome.Status = OutcomeOK
	if preview.Degraded {
		outcome.Status = OutcomeDegraded
		outcome.DegradedReason = preview.DegradedReason
		label := preview.DegradedReason
		if strings.HasPrefix(label, models.DegradedSchemaPrefix) {
			label = "schema"
		}
		metrics.DegradedPreviews.WithLabelValues(label).Inc()
		g.logger.Warn("driver preview degraded", map[string]interface{}{"driver": driver.Name, "reason": preview.DegradedReason})
	}
	g.deps.Observability.RecordDriverOutcome(ctx, string(outcome.Status))
	return outcome
}

func (g *Generator) runTop5(ctx context.Context, req Request, state models.GeneratedData, template string, report *Report, strict bool) models.GeneratedData {
	prompt, err := aggregatePrompt(template, state.Drivers, state.RaceContext)
	if err == nil {
		var text string
		text, err = g.complete(ctx, req, StepTop5, prompt, textgeneration.FormatJSONObject)
		if err == nil {
			var entries []models.Top5Entry
			var raw interface{}
			entries, raw, err = parseList[models.Top5Entry](text, "top5", "top_5", "drivers")
			if err == nil {
				g.checkSchema(registry.SchemaTop5, raw)
				sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rank < entries[j].Rank })
				return models.Reduce(state, models.SetTop5{Entries: entries})
			}
		}
	}

	report.addStepError(StepTop5, err)
	if strict {
		return state
	}
	g.logger.Warn("top 5 step failed, storing empty list", map[string]interface{}{"error": err.Error()})
	return models.Reduce(state, models.SetTop5{Entries: []models.Top5Entry{}})
}

func (g *Generator) runUnderdogs(ctx context.Context, req Request, state models.GeneratedData, template string, report *Report, strict bool) models.GeneratedData {
	prompt, err := aggregatePrompt(template, state.Drivers, state.RaceContext)
	if err == nil {
		var text string
		text, err = g.complete(ctx, req, StepUnderdogs, prompt, textgeneration.FormatJSONObject)
		if err == nil {
			var entries []models.UnderdogEntry
			var raw interface{}
			entries, raw, err = parseList[models.UnderdogEntry](text, "underdogs", "stories")
			if err == nil {
				g.checkSchema(registry.SchemaUnderdogs, raw)
				return models.Reduce(state, models.SetUnderdogs{Entries: entries})
			}
		}
	}

	report.addStepError(StepUnderdogs, err)
	if strict {
		return state
	}
	g.logger.Warn("underdogs step failed, storing empty list", map[string]interface{}{"error": err.Error()})
	return models.Reduce(state, models.SetUnderdogs{Entries: []models.UnderdogEntry{}})
}

func (g *Generator) runPrediction(ctx context.Context, req Request, state models.GeneratedData, template, sessionContext string, report *Report, strict bool) models.GeneratedData {
	text, err := g.complete(ctx, req, StepPrediction, predictionPrompt(template, state, g.config.Roster, sessionContext), textgeneration.FormatText)
	if err != nil {
		report.addStepError(StepPrediction, err)
		if !strict {
			g.logger.Warn("prediction step failed", map[string]interface{}{"error": err.Error()})
		}
		return state
	}
	return models.Reduce(state, models.SetPrediction{Prediction: CleanURLs(text)})
}

func (g *Generator) runStandings(ctx context.Context, req Request, state models.GeneratedData, report *Report, strict bool) models.GeneratedData {
	season, err := strconv.Atoi(req.Season)
	if err != nil {
		season = 0
	}
	standings, err := g.deps.Standings.Build(ctx, season)
	if err != nil {
		report.addStepError(StepStandings, err)
		if !strict {
			g.logger.Warn("standings step failed", map[string]interface{}{"error": err.Error()})
		}
		return state
	}
	return models.Reduce(state, models.SetStandings{Standings: standings})
}

func (g *Generator) checkSchema(id string, raw interface{}) {
	if g.deps.Validator == nil || raw == nil {
		return
	}
	if result := g.deps.Validator.Validate(id, raw); !result.Valid {
		g.logger.Warn("generated output does not match schema", map[string]interface{}{"schema": id, "violations": result.Summary()})
	}
}

// persist saves the aggregate, writes the optional snapshot and sends the
// completion notification. Only the save can fail the run.
func (g *Generator) persist(ctx context.Context, state models.GeneratedData, report *Report) (models.GeneratedData, error) {
	saved, err := g.deps.Store.Save(ctx, state, g.now())
	if err != nil {
		report.addStepError(StepSave, err)
		g.finishReport(ctx, report, "failed")
		return state, err
	}

	if g.config.SnapshotPath != "" {
		if err := g.deps.Store.WriteSnapshot(g.config.SnapshotPath, saved); err != nil {
			report.addStepError(StepSnapshot, err)
			g.logger.Warn("failed to write snapshot", map[string]interface{}{"error": err.Error()})
		}
	}

	g.finishReport(ctx, report, report.Status())

	if g.deps.Notifier != nil {
		if err := g.deps.Notifier.RunCompleted(ctx, report); err != nil {
			report.addStepError(StepNotify, err)
			g.logger.Warn("failed to send completion notification", map[string]interface{}{"error": err.Error()})
		}
	}
	return saved, nil
}

func (g *Generator) startReport(mode string, req Request) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		Mode:      mode,
		Circuit:   req.Circuit,
		Date:      req.Date,
		Season:    req.Season,
		StartedAt: g.now(),
		Drivers:   []DriverOutcome{},
	}
}

func (g *Generator) finishReport(ctx context.Context, report *Report, status string) {
	report.FinishedAt = g.now()
	g.deps.Observability.RecordRun(ctx, report.Mode, status, report.FinishedAt.Sub(report.StartedAt))
}

func foldOutcomes(state models.GeneratedData, outcomes []DriverOutcome) models.GeneratedData {
	actions := make([]models.Action, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Preview != nil {
			actions = append(actions, models.PutDriverPreview{Name: o.Driver, Preview: *o.Preview})
		}
	}
	return models.ReduceAll(state, actions...)
}

func findRosterDriver(roster []models.Driver, name string) (models.Driver, bool) {
	for _, d := range roster {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return models.Driver{}, false
}

// tracker reports progress from concurrent units; fn is never called
// concurrently.
type tracker struct {
	mu        sync.Mutex
	completed int
	total     int
	fn        ProgressFunc
}

func newTracker(total int, fn ProgressFunc) *tracker {
	return &tracker{total: total, fn: fn}
}

func (t *tracker) tick(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed++
	t.emit(message)
}

func (t *tracker) report(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emit(message)
}

func (t *tracker) emit(message string) {
	if t.fn != nil {
		t.fn(Progress{Completed: t.completed, Total: t.total, Message: message})
	}
}
