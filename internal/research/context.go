package research

import (
	"fmt"
	"strings"
	"time"
)

// TradeType adjusts research depth and time horizon.
type TradeType string

const (
	TradeTypeDay        TradeType = "Day Trade"
	TradeTypeSwing      TradeType = "Swing Trade"
	TradeTypeInvestment TradeType = "Investment"
)

// ParseTradeType normalizes a raw trade-type string, defaulting to
// Investment.
func ParseTradeType(raw string) TradeType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "day", "day trade", "daytrade", "day_trade":
		return TradeTypeDay
	case "swing", "swing trade", "swingtrade", "swing_trade":
		return TradeTypeSwing
	default:
		return TradeTypeInvestment
	}
}

// now is swappable in tests.
var now = time.Now

// DatetimeContext renders the current date and time block injected into
// agent prompts so searches and data requests anchor to the present day.
func DatetimeContext() string {
	t := now()
	currentDate := t.Format("January 2, 2006")
	currentDatetime := t.Format("January 2, 2006 at 3:04 PM MST")
	isoDate := t.Format("2006-01-02")
	dayOfWeek := t.Format("Monday")

	return fmt.Sprintf(`**CURRENT DATE AND TIME:**
- Today's Date: %s (%s)
- Current Date/Time: %s
- ISO Date: %s

**IMPORTANT FOR DATA FRESHNESS:**
- Ensure all data queries and searches use the most recent information available
- When referencing dates, use %s as the reference point
- For time-sensitive queries (earnings, news, market data), prioritize data from %s or the most recent trading day
- When using the financial data tools, request the latest available data
- When using web research, ensure searches include recent dates and current context
- All financial data, news, and market information should be current as of %s`,
		currentDate, dayOfWeek, currentDatetime, isoDate,
		currentDate, currentDate, currentDate)
}
