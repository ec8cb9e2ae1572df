package research

import "github.com/equitylens/equitylens/internal/llm"

// Result is the outcome of one specialized research run. Exactly one result
// exists per subject per cycle; failures carry a non-empty Err and an
// error-describing ResearchOutput so synthesis always has text to work with.
type Result struct {
	SubjectID      string               `json:"subject_id"`
	SubjectName    string               `json:"subject_name"`
	ResearchOutput string               `json:"research_output"`
	Sources        []llm.ToolInvocation `json:"sources"`
	Ticker         string               `json:"ticker"`
	TradeType      string               `json:"trade_type"`
	Err            string               `json:"error,omitempty"`
}

// Failed reports whether this result represents a research failure.
func (r Result) Failed() bool {
	return r.Err != ""
}
