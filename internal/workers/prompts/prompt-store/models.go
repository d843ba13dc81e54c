// internal/workers/prompts/prompt-store/models.go
package promptstore

// PromptID names a stored template; it doubles as the storage key.
type PromptID string

const (
	PromptRaceContext   PromptID = "prompt-race-context"
	PromptDriverPreview PromptID = "prompt-driver-preview"
	PromptTop5          PromptID = "prompt-top5"
	PromptUnderdogs     PromptID = "prompt-underdogs"
	PromptPrediction    PromptID = "prompt-prediction"
)

// Storage keys for the API settings.
const (
	KeyAPIKey      = "api-key"
	KeyModel       = "model"
	KeyTemperature = "temperature"
)

// AllPrompts lists every template in display order.
var AllPrompts = []PromptID{
	PromptRaceContext,
	PromptDriverPreview,
	PromptTop5,
	PromptUnderdogs,
	PromptPrediction,
}

func (id PromptID) Valid() bool {
	_, ok := defaultPrompts[id]
	return ok
}

// Settings are the user-editable generation parameters.
type Settings struct {
	APIKey      string  `json:"apiKey"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// Redacted hides all but the last four characters of the key.
func (s Settings) Redacted() Settings {
	if len(s.APIKey) > 4 {
		s.APIKey = "..." + s.APIKey[len(s.APIKey)-4:]
	} else if s.APIKey != "" {
		s.APIKey = "..."
	}
	return s
}

// Var is one placeholder substitution.
type Var struct {
	Key   string
	Value string
}
