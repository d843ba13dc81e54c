// internal/workers/generation/text-generation/models.go
package textgeneration

// FormatType selects the structured-output mode.
type FormatType string

const (
	FormatText       FormatType = ""
	FormatJSONObject FormatType = "json_object"
	FormatJSONSchema FormatType = "json_schema"
)

type ResponseFormat struct {
	Type       FormatType
	JSONSchema map[string]interface{}
}

// Request is one text-generation call.
type Request struct {
	APIKey         string
	Model          string
	Prompt         string
	Temperature    float64
	ResponseFormat ResponseFormat
	// Step labels metrics and logs, e.g. "race-context" or "driver".
	Step string
}

type apiRequest struct {
	Model           string     `json:"model"`
	Input           string     `json:"input"`
	MaxOutputTokens int        `json:"max_output_tokens"`
	Temperature     *float64   `json:"temperature,omitempty"`
	Text            *textBlock `json:"text,omitempty"`
	Tools           []tool     `json:"tools,omitempty"`
}

type textBlock struct {
	Format textFormat `json:"format"`
}

type textFormat struct {
	Type       string                 `json:"type"`
	JSONSchema map[string]interface{} `json:"json_schema,omitempty"`
}

type tool struct {
	Type string `json:"type"`
}

type apiResponse struct {
	Status            string `json:"status"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details"`
	Output []outputItem `json:"output"`
	Error  *apiError    `json:"error"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}
