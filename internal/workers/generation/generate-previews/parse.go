// internal/workers/generation/generate-previews/parse.go
package generatepreviews

import (
	"encoding/json"
	"regexp"
	"strings"

	"f1-previews/internal/models"

	"github.com/kaptinlin/jsonrepair"
)

const tldrFallbackRunes = 200

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	bareURL      = regexp.MustCompile(`https?://[^\s)]+`)
	domainParens = regexp.MustCompile(`\s*\([a-zA-Z0-9\-.]+\.(com|org|net|co\.uk|io|gov|edu)[^)]*\)`)
	currentForm  = regexp.MustCompile(`(?s)## Current Form\s*\n(.+?)(?:\n##|\z)`)
)

// CleanURLs strips markdown links down to their text and removes bare URLs
// and parenthesized domain citations.
func CleanURLs(text string) string {
	text = markdownLink.ReplaceAllString(text, "$1")
	text = bareURL.ReplaceAllString(text, "")
	text = domainParens.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// PreviewSummary returns the "Current Form" section of a preview, or the
// first 200 characters of the full text.
func PreviewSummary(p models.DriverPreview) string {
	if m := currentForm.FindStringSubmatch(p.Full); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(truncateRunes(p.Full, tldrFallbackRunes))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// parseDriverPreview decodes the object, repairing malformed JSON first if
// needed, then falls back to a preview built from the raw text. Fields of
// the wrong type are coerced; raw is the decoded object for schema checks
// and is nil for the fallback.
func parseDriverPreview(text string) (models.DriverPreview, map[string]interface{}) {
	var raw map[string]interface{}
	if json.Unmarshal([]byte(text), &raw) == nil && raw != nil {
		return cleanPreview(models.PreviewFromMap(raw)), raw
	}

	if repaired, err := jsonrepair.JSONRepair(text); err == nil {
		raw = nil
		if json.Unmarshal([]byte(repaired), &raw) == nil && raw != nil {
			preview := models.PreviewFromMap(raw)
			if preview.TLDR != "" || preview.Full != "" {
				preview.Degraded = true
				preview.DegradedReason = models.DegradedRepaired
				return cleanPreview(preview), raw
			}
		}
	}

	return models.DriverPreview{
		TLDR:           truncateRunes(text, tldrFallbackRunes),
		Full:           text,
		PerfectQuali:   "TBD",
		PerfectRace:    "TBD",
		StakesLevel:    models.StakesMedium,
		Degraded:       true,
		DegradedReason: models.DegradedUnparseable,
	}, nil
}

func cleanPreview(p models.DriverPreview) models.DriverPreview {
	p.TLDR = CleanURLs(p.TLDR)
	p.Full = CleanURLs(p.Full)
	p.WatchFor = CleanURLs(p.WatchFor)
	return p
}

// parseList decodes a JSON array, or the first array-valued field of a JSON
// object (preferring keys), since json_object output cannot be a bare
// array. Malformed JSON is repaired once before giving up.
func parseList[T any](text string, keys ...string) ([]T, interface{}, error) {
	out, raw, err := models.DecodeList[T]([]byte(text), keys...)
	if err == nil {
		return out, raw, nil
	}
	repaired, rerr := jsonrepair.JSONRepair(text)
	if rerr != nil {
		return nil, nil, err
	}
	return models.DecodeList[T]([]byte(repaired), keys...)
}
