package research

import (
	"fmt"
	"strings"
)

// Subject is one fixed business-model research angle. Subjects are constant
// data built at process start and never mutated.
type Subject struct {
	ID             string
	Name           string
	Description    string
	PromptTemplate string
}

var subjects = []Subject{
	{
		ID:          "products_services",
		Name:        "Products and Services",
		Description: "What products/services does the business offer?",
		PromptTemplate: `Research and provide comprehensive information about %s's products and services.

Focus on:
- Complete product/service portfolio
- Product categories and lines
- Service offerings
- Key features and capabilities
- Product lifecycle stages
- Innovation and R&D focus areas

Use the financial data tools for company overview and financial data, and web research for detailed product information, market positioning, and recent product launches or updates.`,
	},
	{
		ID:          "revenue_breakdown",
		Name:        "Revenue Breakdown",
		Description: "Revenue breakdown by product, geography, and channel",
		PromptTemplate: `Research and provide detailed revenue breakdown for %s.

Focus on:
- Revenue by product/service line
- Revenue by geographic region
- Revenue by sales channel (direct, indirect, online, retail, etc.)
- Revenue trends and growth rates by segment
- Percentage contribution of each segment
- Historical revenue mix changes

Use the financial data tools for financial statements and income statements. Use web research for detailed segment reporting, geographic revenue data, and channel-specific information from company reports and filings.`,
	},
	{
		ID:          "value_propositions",
		Name:        "Value Propositions and Key Clients",
		Description: "Value propositions and key clients",
		PromptTemplate: `Research %s's value propositions and key clients.

Focus on:
- Core value propositions for each product/service
- Unique selling points and competitive advantages
- Key customer segments
- Major clients and customer relationships
- Customer retention and loyalty metrics
- Market positioning and brand value

Use the financial data tools for company overview. Use web research for customer case studies, client lists, value proposition details, and market positioning information.`,
	},
	{
		ID:          "buying_process",
		Name:        "Buying Process",
		Description: "Who buys and how does the buying process work?",
		PromptTemplate: `Research %s's customer buying process and decision-makers.

Focus on:
- Primary customer types and personas
- Decision-making process and stakeholders
- Sales cycle length and stages
- Buying criteria and evaluation factors
- Procurement processes
- Customer acquisition channels
- Relationship management approach

Use web research for detailed information about customer buying behavior, sales processes, and industry-specific procurement patterns.`,
	},
	{
		ID:          "seasonality",
		Name:        "Seasonality",
		Description: "Seasonality patterns",
		PromptTemplate: `Research seasonal patterns and cyclicality for %s.

Focus on:
- Quarterly revenue patterns
- Seasonal demand fluctuations
- Industry-specific seasonality
- Historical seasonal trends
- Peak and off-peak periods
- Factors driving seasonality
- Impact of seasonality on operations and cash flow

Use the financial data tools for quarterly earnings and financial data. Use web research for industry-specific seasonal patterns and analysis.`,
	},
	{
		ID:          "margin_structure",
		Name:        "Margin Structure",
		Description: "Margin structure by segment",
		PromptTemplate: `Research %s's margin structure by business segment.

Focus on:
- Gross margins by product/service line
- Operating margins by segment
- Profitability by geography
- Margin trends over time
- Factors affecting margins
- Cost structure by segment
- Margin improvement initiatives

Use the financial data tools for income statements and financial data. Use web research for detailed segment margin analysis and cost structure information.`,
	},
}

// Subjects returns the fixed research subjects in canonical order.
func Subjects() []Subject {
	out := make([]Subject, len(subjects))
	copy(out, subjects)
	return out
}

// SubjectByID looks up a subject by its identifier.
func SubjectByID(id string) (Subject, error) {
	for _, s := range subjects {
		if s.ID == id {
			return s, nil
		}
	}
	return Subject{}, fmt.Errorf("research: unknown subject %q", id)
}

// FormatPrompt renders the subject's research prompt for a ticker, appending
// any user-supplied context.
func (s Subject) FormatPrompt(ticker, userContext string) string {
	prompt := fmt.Sprintf(s.PromptTemplate, ticker)
	if strings.TrimSpace(userContext) != "" {
		prompt += "\n\nAdditional context from user: " + userContext
	}
	return prompt
}
