package cronexpr

import "testing"

func TestDescribe(t *testing.T) {
	tests := []struct {
		expression string
		want       string
	}{
		{"0 * * * *", "Every hour"},
		{"0 2 * * *", "Daily at 2:00 AM"},
		{"0 0 * * 0", "Weekly on Sunday at midnight"},
		{"*/5 * * * *", "Every 5 minutes every hour"},
		{"30 14 * * *", "At minute 30 at 14:30"},
		{"0 9 * * 1", "at 9:00 on Monday"},
		{"0 9 1 * *", "at 9:00 on day 1"},
		{"0 9 * 6 *", "at 9:00 in month 6"},
		{"0 9 * * 1-5", "at 9:00 on weekday 1-5"},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			if got := Describe(tt.expression); got != tt.want {
				t.Errorf("Describe(%q) = %q, want %q", tt.expression, got, tt.want)
			}
		})
	}
}

func TestDescribeFallsBackToRawExpression(t *testing.T) {
	raws := []string{
		"garbage", "1 2 3", "", "not even close",
		// valid cron with hour/minute shapes that do not compose into
		// readable text must echo back rather than render garbled output
		"*/15 6-19 * * *",
		"30 6-19 * * *",
		"*/15 6 * * *",
		"1,31 * * * *",
	}
	for _, raw := range raws {
		if got := Describe(raw); got != raw {
			t.Errorf("Describe(%q) = %q, want the raw expression back", raw, got)
		}
	}
}
