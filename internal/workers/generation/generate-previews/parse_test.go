// internal/workers/generation/generate-previews/parse_test.go
package generatepreviews

import (
	"strings"
	"testing"

	"f1-previews/internal/common/validation"
	"f1-previews/internal/models"
	"f1-previews/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanURLs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "markdown link keeps text", in: "See [the report](https://f1.com/x) today", want: "See the report today"},
		{name: "bare url removed", in: "Source: https://example.org/path?q=1 done", want: "Source:  done"},
		{name: "domain citation removed", in: "Fast in sector 2 (autosport.com) and 3", want: "Fast in sector 2 and 3"},
		{name: "co.uk citation", in: "Rain likely (bbc.co.uk/sport).", want: "Rain likely."},
		{name: "plain parens kept", in: "Good pace (for now)", want: "Good pace (for now)"},
		{name: "trims", in: "  padded  ", want: "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanURLs(tt.in))
		})
	}
}

func TestPreviewSummary(t *testing.T) {
	withSection := models.DriverPreview{Full: "## Intro\nHi\n\n## Current Form\nThree podiums in a row.\n\n## Circuit\nLong straights."}
	assert.Equal(t, "Three podiums in a row.", PreviewSummary(withSection))

	lastSection := models.DriverPreview{Full: "## Current Form\nOnly section."}
	assert.Equal(t, "Only section.", PreviewSummary(lastSection))

	long := models.DriverPreview{Full: strings.Repeat("a", 300)}
	assert.Equal(t, strings.Repeat("a", 200), PreviewSummary(long))

	assert.Equal(t, "", PreviewSummary(models.DriverPreview{}))
}

func TestSessionContext(t *testing.T) {
	assert.Equal(t, "", SessionContext(nil))
	assert.Equal(t, "", SessionContext(map[string]string{"fp1": "  "}))

	got := SessionContext(map[string]string{
		"qualifying": "1. Norris",
		"fp1":        "1. Piastri",
		"sprint":     "1. Verstappen",
		"shakedown":  "ran",
		"fp3":        "",
	})
	want := "COMPLETED SESSIONS THIS WEEKEND:\n\n" +
		"**FP1:**\n1. Piastri\n\n" +
		"**Sprint Race:**\n1. Verstappen\n\n" +
		"**Qualifying:**\n1. Norris\n\n" +
		"**SHAKEDOWN:**\nran"
	assert.Equal(t, want, got)
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr bool
	}{
		{name: "bare array", text: `[{"rank":1,"driver":"A"}]`, want: 1},
		{name: "preferred key", text: `{"notes":[],"top5":[{"rank":1,"driver":"A"},{"rank":2,"driver":"B"}]}`, want: 2},
		{name: "any array field", text: `{"picks":[{"rank":1,"driver":"A"}]}`, want: 1},
		{name: "trailing comma repaired", text: `[{"rank":1,"driver":"A"},]`, want: 1},
		{name: "empty array", text: `[]`, want: 0},
		{name: "string rank", text: `{"top5":[{"rank":"2","driver":"B"},{"rank":1,"driver":"A"}]}`, want: 2},
		{name: "object without list", text: `{"rank":1}`, wantErr: true},
		{name: "prose", text: `Norris, then Piastri.`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := parseList[models.Top5Entry](tt.text, "top5")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestParseDriverPreview(t *testing.T) {
	preview, raw := parseDriverPreview(`{"tldr":"Quick [here](https://x.com/y)","full":"Body","stakes_level":"low"}`)
	require.NotNil(t, raw)
	assert.False(t, preview.Degraded)
	assert.Equal(t, "Quick here", preview.TLDR)
	assert.Equal(t, models.StakesLow, preview.StakesLevel)

	preview, raw = parseDriverPreview(`null`)
	assert.Nil(t, raw)
	assert.Equal(t, models.DegradedUnparseable, preview.DegradedReason)
	assert.Equal(t, "null", preview.Full)
}

func TestParseList_StringRank(t *testing.T) {
	got, _, err := parseList[models.Top5Entry](`{"top5":[{"rank":"1","driver":"Oscar Piastri","reason":"Leads","stakes":"title"},{"rank":"#2","driver":"Lando Norris"}]}`, "top5")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Rank(1), got[0].Rank)
	assert.Equal(t, models.Rank(2), got[1].Rank)
}

func TestParseDriverPreview_CoercesMistypedFields(t *testing.T) {
	text := `{"tldr":"Fast on Saturdays","full":"Body","perfect_quali":3,"stakes_level":"High","key_strengths":"braking","watch_for":true}`

	preview, raw := parseDriverPreview(text)
	require.NotNil(t, raw)
	assert.False(t, preview.Degraded)
	assert.Equal(t, "Fast on Saturdays", preview.TLDR)
	assert.Equal(t, "Body", preview.Full)
	assert.Equal(t, "3", preview.PerfectQuali)
	assert.Equal(t, models.StakesHigh, preview.StakesLevel)
	assert.Equal(t, []string{"braking"}, preview.KeyStrengths)
	assert.Equal(t, "true", preview.WatchFor)

	validator, err := validation.NewDefaultValidator()
	require.NoError(t, err)
	result := validator.Validate(registry.SchemaDriverPreview, raw)
	assert.False(t, result.Valid)
}
