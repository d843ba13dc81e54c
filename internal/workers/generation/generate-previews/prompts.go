// internal/workers/generation/generate-previews/prompts.go
package generatepreviews

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"f1-previews/internal/models"
	promptstore "f1-previews/internal/workers/prompts/prompt-store"
)

var sessionOrder = []struct {
	key  string
	name string
}{
	{"fp1", "FP1"},
	{"fp2", "FP2"},
	{"fp3", "FP3"},
	{"sprint_qualifying", "Sprint Qualifying"},
	{"sprint", "Sprint Race"},
	{"qualifying", "Qualifying"},
}

// SessionContext renders results of sessions already run this weekend.
// Empty values are skipped; an empty map yields "".
func SessionContext(results map[string]string) string {
	var b strings.Builder
	seen := map[string]bool{}

	write := func(name, value string) {
		if b.Len() == 0 {
			b.WriteString("COMPLETED SESSIONS THIS WEEKEND:\n\n")
		}
		fmt.Fprintf(&b, "**%s:**\n%s\n\n", name, value)
	}

	for _, s := range sessionOrder {
		seen[s.key] = true
		if v := strings.TrimSpace(results[s.key]); v != "" {
			write(s.name, v)
		}
	}

	extra := make([]string, 0)
	for k := range results {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if v := strings.TrimSpace(results[k]); v != "" {
			write(strings.ToUpper(k), v)
		}
	}

	return strings.TrimSpace(b.String())
}

func raceContextPrompt(template string, req Request) string {
	return promptstore.Substitute(template,
		promptstore.Var{Key: "circuit", Value: req.Circuit},
		promptstore.Var{Key: "raceDate", Value: req.Date},
		promptstore.Var{Key: "season", Value: req.Season},
	)
}

func driverPrompt(template string, d models.Driver, req Request, raceContext, sessionContext string) string {
	return promptstore.Substitute(template,
		promptstore.Var{Key: "driverName", Value: d.Name},
		promptstore.Var{Key: "driverNumber", Value: strconv.Itoa(d.Number)},
		promptstore.Var{Key: "team", Value: d.Team},
		promptstore.Var{Key: "circuit", Value: req.Circuit},
		promptstore.Var{Key: "raceContext", Value: raceContext},
		promptstore.Var{Key: "season", Value: req.Season},
		promptstore.Var{Key: "sessionContext", Value: sessionContext},
	)
}

// aggregatePrompt appends the driver map and race context to a top5 or
// underdogs template.
func aggregatePrompt(template string, drivers map[string]models.DriverPreview, raceContext string) (string, error) {
	data, err := json.MarshalIndent(drivers, "", "  ")
	if err != nil {
		return "", err
	}
	return template + "\n\nDriver Previews:\n" + string(data) + "\n\nRace Context:\n" + raceContext, nil
}

func predictionPrompt(template string, data models.GeneratedData, roster []models.Driver, sessionContext string) string {
	return promptstore.Substitute(template,
		promptstore.Var{Key: "circuit", Value: data.Metadata.Circuit},
		promptstore.Var{Key: "raceDate", Value: data.Metadata.Date},
		promptstore.Var{Key: "sessionContext", Value: sessionContext},
		promptstore.Var{Key: "driverPreviews", Value: formatPreviews(data.Drivers, roster)},
		promptstore.Var{Key: "raceContext", Value: data.RaceContext},
	)
}

// formatPreviews lists previews in roster order, then any other names
// alphabetically.
func formatPreviews(drivers map[string]models.DriverPreview, roster []models.Driver) string {
	names := make([]string, 0, len(drivers))
	listed := map[string]bool{}
	for _, d := range roster {
		if _, ok := drivers[d.Name]; ok {
			names = append(names, d.Name)
			listed[d.Name] = true
		}
	}
	var rest []string
	for name := range drivers {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	or := func(s, def string) string {
		if s == "" {
			return def
		}
		return s
	}

	blocks := make([]string, 0, len(names))
	for _, name := range names {
		p := drivers[name]
		blocks = append(blocks, fmt.Sprintf("**%s** (%s stakes):\n%s\n\nPerfect Result: Quali %s, Race %s\nGood Result: Quali %s, Race %s",
			name,
			or(string(p.StakesLevel), string(models.StakesMedium)),
			p.Full,
			or(p.PerfectQuali, "N/A"), or(p.PerfectRace, "N/A"),
			or(p.GoodQuali, "N/A"), or(p.GoodRace, "N/A"),
		))
	}
	return strings.Join(blocks, "\n\n")
}
