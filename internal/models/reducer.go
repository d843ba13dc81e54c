// internal/models/reducer.go
package models

// Action is a single change to the aggregate.
type Action interface {
	isAction()
}

type SetRaceContext struct{ RaceContext string }

type PutDriverPreview struct {
	Name    string
	Preview DriverPreview
}

type SetTop5 struct{ Entries []Top5Entry }

type SetUnderdogs struct{ Entries []UnderdogEntry }

type SetPrediction struct{ Prediction string }

type SetStandings struct{ Standings *Standings }

type SetMetadata struct{ Metadata Metadata }

// Reset replaces the aggregate with the empty one.
type Reset struct{}

func (SetRaceContext) isAction()   {}
func (PutDriverPreview) isAction() {}
func (SetTop5) isAction()          {}
func (SetUnderdogs) isAction()     {}
func (SetPrediction) isAction()    {}
func (SetStandings) isAction()     {}
func (SetMetadata) isAction()      {}
func (Reset) isAction()            {}

// Reduce applies action to state and returns the new aggregate. state is
// never modified; the result shares no maps or slices with it.
func Reduce(state GeneratedData, action Action) GeneratedData {
	next := state.Clone()

	switch a := action.(type) {
	case SetRaceContext:
		next.RaceContext = a.RaceContext
	case PutDriverPreview:
		next.Drivers[a.Name] = clonePreview(a.Preview)
	case SetTop5:
		next.Top5 = append([]Top5Entry{}, a.Entries...)
	case SetUnderdogs:
		next.Underdogs = append([]UnderdogEntry{}, a.Entries...)
	case SetPrediction:
		next.Prediction = a.Prediction
	case SetStandings:
		next.Standings = cloneStandings(a.Standings)
	case SetMetadata:
		next.Metadata = cloneMetadata(a.Metadata)
	case Reset:
		return NewGeneratedData()
	}

	return next
}

// ReduceAll folds actions left to right.
func ReduceAll(state GeneratedData, actions ...Action) GeneratedData {
	for _, a := range actions {
		state = Reduce(state, a)
	}
	return state
}

// Clone deep-copies the aggregate. Nil collections come back empty.
func (g GeneratedData) Clone() GeneratedData {
	out := GeneratedData{
		Drivers:     make(map[string]DriverPreview, len(g.Drivers)),
		Top5:        append([]Top5Entry{}, g.Top5...),
		Underdogs:   append([]UnderdogEntry{}, g.Underdogs...),
		RaceContext: g.RaceContext,
		Prediction:  g.Prediction,
		Standings:   cloneStandings(g.Standings),
		Metadata:    cloneMetadata(g.Metadata),
	}
	for name, p := range g.Drivers {
		out.Drivers[name] = clonePreview(p)
	}
	return out
}

func clonePreview(p DriverPreview) DriverPreview {
	if p.KeyStrengths != nil {
		p.KeyStrengths = append([]string{}, p.KeyStrengths...)
	}
	return p
}

func cloneMetadata(m Metadata) Metadata {
	if m.GeneratedAt != nil {
		ts := *m.GeneratedAt
		m.GeneratedAt = &ts
	}
	return m
}

func cloneStandings(s *Standings) *Standings {
	if s == nil {
		return nil
	}
	out := &Standings{
		StandingsData: make(map[string]DriverProgression, len(s.StandingsData)),
		LatestRound:   s.LatestRound,
	}
	for name, prog := range s.StandingsData {
		prog.Positions = append([]StandingsPosition{}, prog.Positions...)
		out.StandingsData[name] = prog
	}
	return out
}
