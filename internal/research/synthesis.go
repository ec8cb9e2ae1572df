package research

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/equitylens/equitylens/internal/common"
	"github.com/equitylens/equitylens/internal/common/telemetry"
	"github.com/equitylens/equitylens/internal/llm"
)

// Higher output budget than ordinary chat: the synthesis step integrates
// six research outputs into one document.
const defaultSynthesisMaxOutputTokens = 8000

const synthesisTemperature = 0.7

// Synthesizer consolidates a full research result set into one business
// model report. It needs no tools; it works only from the provided results.
type Synthesizer struct {
	provider        llm.Provider
	maxOutputTokens int64
}

// NewSynthesizer builds a synthesizer over provider. The output token budget
// comes from SYNTHESIS_MAX_OUTPUT_TOKENS when set.
func NewSynthesizer(provider llm.Provider) *Synthesizer {
	maxTokens := int64(defaultSynthesisMaxOutputTokens)
	if raw := os.Getenv("SYNTHESIS_MAX_OUTPUT_TOKENS"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			maxTokens = parsed
		}
	}
	return &Synthesizer{provider: provider, maxOutputTokens: maxTokens}
}

// Synthesize produces the final report text. It is total: on failure the
// returned text describes the error so the caller always has a report body,
// and the error is returned alongside for run bookkeeping.
func (s *Synthesizer) Synthesize(ctx context.Context, ticker string, tradeType TradeType, results map[string]Result, userContext string) (string, error) {
	ctx, finish := telemetry.StartSpan(ctx, "research.synthesize")
	defer finish("ticker", ticker, "subjects", len(results))
	telemetry.RecordSynthesis()

	messages := []llm.Message{
		{Role: "system", Content: synthesisInstructions(ticker, tradeType)},
		{Role: "user", Content: buildSynthesisPrompt(ticker, tradeType, results, userContext)},
	}
	opts := &llm.ChatOptions{
		Temperature:     synthesisTemperature,
		MaxOutputTokens: s.maxOutputTokens,
	}

	type outcome struct {
		report string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		report, err := s.provider.Chat(ctx, messages, opts)
		done <- outcome{report: report, err: err}
	}()

	select {
	case <-ctx.Done():
		err := ctx.Err()
		common.Logger().Error("synthesis cancelled", "ticker", ticker, "error", err)
		return fmt.Sprintf("Error synthesizing report: %s", err), err
	case out := <-done:
		if out.err != nil {
			common.Logger().Error("synthesis failed", "ticker", ticker, "error", out.err)
			return fmt.Sprintf("Error synthesizing report: %s", out.err), out.err
		}
		return out.report, nil
	}
}

func synthesisInstructions(ticker string, tradeType TradeType) string {
	return fmt.Sprintf(`You are a senior equity research analyst synthesizing specialized research findings into a comprehensive business model report for %s.

%s

**Your Task:**
Integrate and structure research findings from multiple specialized research agents into a comprehensive, detailed business model report. Your role is to PRESERVE and ORGANIZE all detailed information, NOT to summarize or condense it.

**CRITICAL: Detail Preservation Requirements**
- **PRESERVE ALL SPECIFIC DATA**: Include all metrics, numbers, percentages, dollar amounts, and quantitative data points from the research outputs
- **PRESERVE ALL FACTS**: Include all specific facts, findings, and qualitative insights from specialized agents
- **PRESERVE ALL EXAMPLES**: Include specific examples, case studies, and concrete details provided by research agents
- **INTEGRATE, DON'T SUMMARIZE**: Your job is to integrate information into a structured format, not to condense or summarize away details
- **MINIMUM DETAIL REQUIREMENTS**: Each major section should include at least 3-5 specific data points, metrics, or detailed facts from the research outputs
- **INCLUDE DIRECT QUOTES**: When key metrics or critical findings are provided, include them directly with their exact values/statements
- **CROSS-REFERENCE INFORMATION**: Where information from different research subjects relates to each other, make those connections explicit

**Report Structure:**
1. **Executive Summary** - Comprehensive overview including key metrics and main findings
2. **Products and Services** - Detailed description of all products/services with specific features, capabilities, and details
3. **Revenue Breakdown** - Detailed revenue analysis with specific numbers, percentages, trends, and segment breakdowns
4. **Value Propositions and Key Clients** - Detailed value propositions with specific examples, major clients, and customer relationship details
5. **Buying Process** - Comprehensive description of the buying process with specific details about decision-makers, sales cycles, and procurement processes
6. **Seasonality** - Detailed seasonal patterns with specific quarterly data, trends, and cyclical factors
7. **Margin Structure** - Detailed margin analysis with specific percentages, trends, and segment-level profitability data
8. **Business Model Overview** - Integrated view connecting all aspects with specific details and metrics
9. **Sources and Citations** - All sources cited from the research with proper attribution

**Trade Type Context:** %s
- Adjust report depth and focus based on trade type
- For Day Trade: Emphasize immediate, actionable insights while preserving all relevant details
- For Swing Trade: Emphasize near-term factors while maintaining comprehensive detail
- For Investment: Provide comprehensive, long-term analysis with full detail preservation

**Guidelines:**
- **INTEGRATION OVER SUMMARIZATION**: Integrate all research findings seamlessly while preserving their depth and detail
- **DATA POINT PRESERVATION**: Include specific numbers, percentages, dollar amounts, dates, and quantitative metrics from research outputs
- **FACT PRESERVATION**: Include all specific facts, findings, examples, and qualitative insights
- **STRUCTURE WITHOUT REDUCTION**: Organize information into the report structure without losing detail or condensing content
- **CONNECTIONS AND CONTEXT**: Draw connections between different research subjects where relevant, using the detailed information provided
- Maintain consistency across sections while preserving all unique details
- Cite all sources from the research outputs with proper attribution
- Use clear, professional language while maintaining comprehensive detail
- Structure the report for easy reading and reference without sacrificing information density

**Important:**
- Only use information provided in the research outputs
- Do not add information not present in the research findings
- **DO NOT summarize away details** - preserve all specific metrics, numbers, and facts
- Clearly cite sources for all claims
- If information is missing for a section, note it clearly
- **Ensure the report is comprehensive, detailed, and fully utilizes all research findings**`,
		ticker, DatetimeContext(), tradeType)
}

// buildSynthesisPrompt lays research outputs into the prompt in canonical
// subject order so the report structure is stable run to run.
func buildSynthesisPrompt(ticker string, tradeType TradeType, results map[string]Result, userContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**TASK: Synthesize specialized research findings into a comprehensive business model report for %s (%s)**\n\n", ticker, tradeType)
	b.WriteString(DatetimeContext())
	b.WriteString("\n\n**CRITICAL INSTRUCTIONS - READ CAREFULLY:**\n\n")
	fmt.Fprintf(&b, "The specialized research agents below have conducted detailed, in-depth research on different aspects of %s's business model. Each agent has provided comprehensive findings with specific data points, metrics, numbers, facts, and detailed analysis.\n\n", ticker)
	b.WriteString(`**YOUR RESPONSIBILITY:**
- **PRESERVE ALL DETAILS**: Include ALL specific metrics, numbers, percentages, dollar amounts, dates, and quantitative data from each research output
- **PRESERVE ALL FACTS**: Include ALL specific facts, findings, examples, and qualitative insights from each research output
- **INTEGRATE, DON'T SUMMARIZE**: Your job is to integrate this detailed information into a well-structured report, NOT to condense or summarize away the details
- **USE ALL INFORMATION**: Fully utilize all the detailed research findings - specialized agents have done comprehensive work that should be preserved in the final report
- **MAINTAIN DEPTH**: Maintain the depth and specificity of analysis provided by the specialized research agents
- **INCLUDE SPECIFIC DATA**: Each section of your report should include specific data points, metrics, and detailed information - avoid high-level summaries
- **CROSS-REFERENCE**: Where information from different research subjects connects, make those relationships explicit using the detailed data provided

The specialized agents have invested significant effort in gathering detailed information. Your synthesis should reflect and preserve this comprehensive research, not reduce it to bullet points or high-level summaries.

**Research Findings from Specialized Agents:**

`)

	for _, subject := range Subjects() {
		result, ok := results[subject.ID]
		if !ok {
			continue
		}
		name := result.SubjectName
		if name == "" {
			name = subject.ID
		}
		output := result.ResearchOutput
		if output == "" {
			output = "No research output available"
		}
		fmt.Fprintf(&b, "### %s - Detailed Research Output\n\n", name)
		b.WriteString("**Comprehensive Research Findings (preserve all details from this output):**\n")
		b.WriteString(output)
		b.WriteString("\n")
		if len(result.Sources) > 0 {
			b.WriteString("\n**Sources Used by This Research Agent:**\n")
			for i, source := range result.Sources {
				fmt.Fprintf(&b, "%d. %s(%s)\n", i+1, source.Name, source.Arguments)
			}
		}
		b.WriteString("\n---\n\n")
	}

	if strings.TrimSpace(userContext) != "" {
		b.WriteString("\n**Additional Context from User:**\n")
		b.WriteString(userContext)
		b.WriteString("\n")
	}

	b.WriteString(`
**FINAL INSTRUCTIONS:**

Now create a comprehensive, detailed business model report that:
1. Integrates all the detailed research findings above into a well-structured format
2. Preserves ALL specific metrics, numbers, facts, and detailed information from each research output
3. Includes specific data points (percentages, dollar amounts, dates, quantities) throughout the report
4. Maintains the depth and comprehensiveness of the specialized research
5. Clearly cites all sources from the research outputs
6. Draws connections between different research subjects where relevant

Remember: The goal is comprehensive integration of detailed information, NOT summarization or condensation. Use all the detailed findings provided by the specialized research agents.`)
	return b.String()
}
