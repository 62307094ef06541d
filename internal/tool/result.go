package tool

// Result is the text envelope returned to the agent. IsError marks results
// the agent should treat as a failure to act on, such as a failed script or
// rejected input; the text is still the full report.
type Result struct {
	Text    string         `json:"text"`
	IsError bool           `json:"is_error"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func textResult(text string) Result { return Result{Text: text} }

func errorResult(text string) Result { return Result{Text: text, IsError: true} }
