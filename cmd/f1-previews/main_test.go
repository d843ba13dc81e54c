// cmd/f1-previews/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"f1-previews/internal/models"
	promptstore "f1-previews/internal/workers/prompts/prompt-store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptText(t *testing.T) {
	text, err := promptText([]string{"prompt-top5", "inline"}, "", strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "inline", text)

	text, err = promptText([]string{"prompt-top5"}, "-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	path := filepath.Join(t.TempDir(), "top5.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))
	text, err = promptText([]string{"prompt-top5"}, path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from file", text)
}

func TestPrintAggregate(t *testing.T) {
	var empty bytes.Buffer
	printAggregate(&empty, models.NewGeneratedData(), "2025")
	assert.Contains(t, empty.String(), "No previews generated yet")

	state := models.ReduceAll(models.NewGeneratedData(),
		models.SetRaceContext{RaceContext: "Fast and flat."},
		models.PutDriverPreview{Name: "Lando Norris", Preview: models.DriverPreview{TLDR: "Pole favourite.", StakesLevel: models.StakesHigh}},
		models.PutDriverPreview{Name: "Yuki Tsunoda", Preview: models.DriverPreview{TLDR: "TBD", Degraded: true, DegradedReason: models.DegradedUnparseable}},
		models.SetTop5{Entries: []models.Top5Entry{{Rank: 1, Driver: "Lando Norris", Reason: "Home of speed", Stakes: "high"}}},
		models.SetMetadata{Metadata: models.Metadata{Circuit: "Monza", Date: "2025-09-07"}},
	).StampGeneratedAt(time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC))

	var out bytes.Buffer
	printAggregate(&out, state, "2025")
	s := out.String()
	assert.Contains(t, s, "Monza 2025 (2025-09-07)")
	assert.Contains(t, s, "Fast and flat.")
	assert.Contains(t, s, "Pole favourite.")
	assert.Contains(t, s, "[unparseable] TBD")
	assert.Contains(t, s, "(no preview)")
	assert.Contains(t, s, "Home of speed")
}

func TestPrintPromptTable(t *testing.T) {
	all := map[promptstore.PromptID]string{}
	for _, id := range promptstore.AllPrompts {
		all[id], _ = promptstore.Default(id)
	}
	var out bytes.Buffer
	printPromptTable(&out, all)
	for _, id := range promptstore.AllPrompts {
		assert.Contains(t, out.String(), string(id))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
