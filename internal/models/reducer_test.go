// internal/models/reducer_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_DoesNotMutateInput(t *testing.T) {
	ts := "2025-09-05T10:00:00Z"
	state := NewGeneratedData()
	state.Drivers["Lando Norris"] = DriverPreview{TLDR: "old", KeyStrengths: []string{"pace"}}
	state.Top5 = []Top5Entry{{Rank: 1, Driver: "Lando Norris"}}
	state.Metadata = Metadata{Circuit: "Monza", GeneratedAt: &ts}

	tests := []struct {
		name   string
		action Action
		check  func(t *testing.T, next GeneratedData)
	}{
		{
			name:   "put driver preview",
			action: PutDriverPreview{Name: "Oscar Piastri", Preview: DriverPreview{TLDR: "new"}},
			check: func(t *testing.T, next GeneratedData) {
				assert.Len(t, next.Drivers, 2)
				assert.Equal(t, "new", next.Drivers["Oscar Piastri"].TLDR)
			},
		},
		{
			name:   "overwrite driver preview wholesale",
			action: PutDriverPreview{Name: "Lando Norris", Preview: DriverPreview{TLDR: "fresh"}},
			check: func(t *testing.T, next GeneratedData) {
				assert.Equal(t, "fresh", next.Drivers["Lando Norris"].TLDR)
				assert.Nil(t, next.Drivers["Lando Norris"].KeyStrengths)
			},
		},
		{
			name:   "set top5",
			action: SetTop5{Entries: []Top5Entry{{Rank: 1, Driver: "Max Verstappen"}}},
			check: func(t *testing.T, next GeneratedData) {
				assert.Equal(t, "Max Verstappen", next.Top5[0].Driver)
			},
		},
		{
			name:   "set metadata",
			action: SetMetadata{Metadata: Metadata{Circuit: "Baku"}},
			check: func(t *testing.T, next GeneratedData) {
				assert.Equal(t, "Baku", next.Metadata.Circuit)
				assert.Nil(t, next.Metadata.GeneratedAt)
			},
		},
		{
			name:   "reset",
			action: Reset{},
			check: func(t *testing.T, next GeneratedData) {
				assert.Empty(t, next.Drivers)
				assert.NotNil(t, next.Top5)
				assert.Empty(t, next.RaceContext)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := Reduce(state, tt.action)
			tt.check(t, next)

			assert.Len(t, state.Drivers, 1)
			assert.Equal(t, "old", state.Drivers["Lando Norris"].TLDR)
			assert.Equal(t, "Lando Norris", state.Top5[0].Driver)
			assert.Equal(t, "Monza", state.Metadata.Circuit)
		})
	}
}

func TestReduce_ResultSharesNothing(t *testing.T) {
	state := NewGeneratedData()
	state.Drivers["Lando Norris"] = DriverPreview{KeyStrengths: []string{"pace"}}

	next := Reduce(state, SetRaceContext{RaceContext: "{}"})
	next.Drivers["Lando Norris"].KeyStrengths[0] = "changed"

	assert.Equal(t, "pace", state.Drivers["Lando Norris"].KeyStrengths[0])
	assert.Empty(t, state.RaceContext)
}

func TestReduceAll(t *testing.T) {
	got := ReduceAll(NewGeneratedData(),
		SetRaceContext{RaceContext: "ctx"},
		PutDriverPreview{Name: "Alex Albon", Preview: DriverPreview{TLDR: "a"}},
		SetUnderdogs{Entries: []UnderdogEntry{{Driver: "Alex Albon", Title: "t"}}},
		SetPrediction{Prediction: "P1 Norris"},
	)

	assert.Equal(t, "ctx", got.RaceContext)
	assert.Len(t, got.Drivers, 1)
	assert.Len(t, got.Underdogs, 1)
	assert.Equal(t, "P1 Norris", got.Prediction)
}

func TestGeneratedData_Preview(t *testing.T) {
	g := Reduce(NewGeneratedData(), PutDriverPreview{Name: "Carlos Sainz", Preview: DriverPreview{TLDR: "x"}})

	p, ok := g.Preview("Carlos Sainz")
	require.True(t, ok)
	assert.Equal(t, "x", p.TLDR)

	_, ok = g.Preview("Nobody")
	assert.False(t, ok)

	var zero GeneratedData
	_, ok = zero.Preview("Carlos Sainz")
	assert.False(t, ok)
}

func TestStampGeneratedAt(t *testing.T) {
	g := NewGeneratedData()
	g.Metadata.Circuit = "Monza"
	now := time.Date(2025, 9, 5, 12, 30, 0, 0, time.UTC)

	stamped := g.StampGeneratedAt(now)

	require.NotNil(t, stamped.Metadata.GeneratedAt)
	assert.Equal(t, "2025-09-05T12:30:00Z", *stamped.Metadata.GeneratedAt)
	assert.Equal(t, "Monza", stamped.Metadata.Circuit)
	assert.Nil(t, g.Metadata.GeneratedAt)
	assert.True(t, stamped.GeneratedTime().Equal(now))
}

func TestSortByChampionship(t *testing.T) {
	standings := map[string]ChampionshipStanding{
		"Oscar Piastri":  {Position: 1, Points: 324},
		"Lando Norris":   {Position: 2, Points: 293},
		"Max Verstappen": {Position: 3, Points: 230},
	}

	sorted := SortByChampionship(Roster2025, standings)

	require.Len(t, sorted, len(Roster2025))
	assert.Equal(t, "Oscar Piastri", sorted[0].Name)
	assert.Equal(t, "Lando Norris", sorted[1].Name)
	assert.Equal(t, "Max Verstappen", sorted[2].Name)
	// unranked drivers keep roster order
	assert.Equal(t, "Yuki Tsunoda", sorted[3].Name)
	assert.Equal(t, "Max Verstappen", Roster2025[0].Name)
}

func TestFindDriver(t *testing.T) {
	d, ok := FindDriver("Kimi Antonelli")
	require.True(t, ok)
	assert.Equal(t, 12, d.Number)

	d, ok = FindDriverByNumber(81)
	require.True(t, ok)
	assert.Equal(t, "Oscar Piastri", d.Name)

	_, ok = FindDriver("Michael Schumacher")
	assert.False(t, ok)

	assert.Equal(t, "Kimi Antonelli", DisplayName("Andrea Kimi Antonelli"))
	assert.Equal(t, "Lando Norris", DisplayName("Lando Norris"))
}
