package research

import (
	"context"
	"fmt"

	"github.com/equitylens/equitylens/internal/agent"
	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/llm"
)

// Researcher produces one result for one subject. Implementations must be
// total: failures are reported inside the result, never as a panic, and the
// returned result always carries the subject and ticker identity.
type Researcher interface {
	ResearchSubject(ctx context.Context, subject Subject, ticker string, tradeType TradeType, userContext string) Result
}

// SpecializedAgent runs a focused research task for a single subject using
// the shared tool-calling runner.
type SpecializedAgent struct {
	runner *agent.Runner
}

// NewSpecializedAgent builds an agent over the runner.
func NewSpecializedAgent(runner *agent.Runner) *SpecializedAgent {
	return &SpecializedAgent{runner: runner}
}

// Instructions renders the system instructions for a subject research run.
func Instructions(subject Subject, ticker string, tradeType TradeType) string {
	return fmt.Sprintf(`You are a specialized research analyst focusing on %s for %s.

Your specific research task: %s

**Research Objective:**
%s

%s

**Trade Type Context:** %s
- Adjust your research depth and focus based on this trade type
- For Day Trade: Focus on immediate, actionable insights
- For Swing Trade: Focus on near-term factors (1-14 days)
- For Investment: Focus on comprehensive, long-term analysis

**Available Tools:**
- Financial Data Tools: Use for structured financial data, company fundamentals, financial statements
- Web Research: Use for real-time information, news, expert analysis, qualitative insights

**Output Requirements:**
1. Provide comprehensive research findings on %s
2. Include specific data points, metrics, and facts
3. Cite all sources (tool outputs, research results)
4. Structure your response clearly with:
   - Key findings
   - Supporting data
   - Sources and citations
   - Any relevant context or analysis

**Important:**
- Use both financial data tools and web research to gather comprehensive information
- Be thorough and specific in your research
- Ensure all claims are supported by data from your research tools
- Format your response for easy integration into a final report

Begin your research now.`,
		subject.Name, ticker, subject.Description,
		subject.FormatPrompt(ticker, ""),
		DatetimeContext(),
		tradeType, subject.Name)
}

// ResearchSubject executes the research task and always returns a populated
// result. On failure the output carries the error description so downstream
// synthesis still sees an entry for the subject.
func (a *SpecializedAgent) ResearchSubject(ctx context.Context, subject Subject, ticker string, tradeType TradeType, userContext string) Result {
	result := Result{
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		Ticker:      ticker,
		TradeType:   string(tradeType),
		Sources:     []llm.ToolInvocation{},
	}

	run, err := a.runner.Run(ctx,
		Instructions(subject, ticker, tradeType),
		subject.FormatPrompt(ticker, userContext),
		"ticker", ticker, "subject", subject.ID, "trade_type", string(tradeType))
	if err != nil {
		common.Logger().Error("specialized research failed",
			"ticker", ticker, "subject", subject.ID, "error", err)
		result.Err = err.Error()
		result.ResearchOutput = fmt.Sprintf("Error in specialized research for %s: %s", subject.Name, err)
		return result
	}

	result.ResearchOutput = run.Output
	if len(run.Invocations) > 0 {
		result.Sources = run.Invocations
	}
	return result
}
