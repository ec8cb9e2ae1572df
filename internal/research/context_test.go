package research

import (
	"strings"
	"testing"
	"time"
)

func TestDatetimeContextAnchorsToNow(t *testing.T) {
	orig := now
	now = func() time.Time {
		return time.Date(2026, time.March, 3, 14, 30, 0, 0, time.UTC)
	}
	t.Cleanup(func() { now = orig })

	block := DatetimeContext()
	if !strings.Contains(block, "Today's Date: March 3, 2026 (Tuesday)") {
		t.Fatalf("missing date line: %s", block)
	}
	if !strings.Contains(block, "March 3, 2026 at 2:30 PM UTC") {
		t.Fatalf("missing datetime line: %s", block)
	}
	if !strings.Contains(block, "ISO Date: 2026-03-03") {
		t.Fatalf("missing ISO date: %s", block)
	}
}
