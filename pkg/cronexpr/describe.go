package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Preset pairs a cron expression with its display label. The list is
// served to clients as schedule shortcuts.
type Preset struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Presets returns the built-in cron expression shortcuts.
func Presets() []Preset {
	return []Preset{
		{Label: "Every Hour", Value: "0 * * * *"},
		{Label: "Every 6 Hours", Value: "0 */6 * * *"},
		{Label: "Daily at Midnight", Value: "0 0 * * *"},
		{Label: "Daily at 2am (Recommended)", Value: "0 2 * * *"},
		{Label: "Weekly on Sunday", Value: "0 0 * * 0"},
	}
}

var presetDescriptions = map[string]string{
	"0 * * * *":    "Every hour",
	"*/30 * * * *": "Every 30 minutes",
	"0 */2 * * *":  "Every 2 hours",
	"0 */6 * * *":  "Every 6 hours",
	"0 */12 * * *": "Every 12 hours",
	"0 0 * * *":    "Daily at midnight",
	"0 2 * * *":    "Daily at 2:00 AM",
	"0 6 * * *":    "Daily at 6:00 AM",
	"0 0 * * 0":    "Weekly on Sunday at midnight",
	"0 0 * * 1":    "Weekly on Monday at midnight",
	"0 0 1 * *":    "Monthly on the 1st at midnight",
}

var weekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Describe renders a best-effort human-readable description of a 5-field
// cron expression. It never fails: unrecognized patterns echo the raw
// expression back.
func Describe(expression string) string {
	if desc, ok := presetDescriptions[expression]; ok {
		return desc
	}

	parts := strings.Fields(expression)
	if len(parts) != 5 {
		return expression
	}
	minute, hour, day, month, weekday := parts[0], parts[1], parts[2], parts[3], parts[4]

	var desc []string

	switch {
	case minute == "*":
		desc = append(desc, "Every minute")
	case strings.HasPrefix(minute, "*/") && isNumeric(minute[2:]):
		desc = append(desc, fmt.Sprintf("Every %s minutes", minute[2:]))
	case minute == "0":
		// described together with the hour below
	case isNumeric(minute):
		desc = append(desc, fmt.Sprintf("At minute %s", minute))
	default:
		// ranges and lists do not compose into readable text
		return expression
	}

	switch {
	case hour == "*":
		if minute != "*" {
			desc = append(desc, "every hour")
		}
	case strings.HasPrefix(hour, "*/") && isNumeric(hour[2:]):
		desc = append(desc, fmt.Sprintf("every %s hours", hour[2:]))
	case isNumeric(hour) && isNumeric(minute):
		desc = append(desc, fmt.Sprintf("at %s:%s", hour, padMinute(minute)))
	default:
		return expression
	}

	if day != "*" {
		desc = append(desc, fmt.Sprintf("on day %s", day))
	}
	if month != "*" {
		desc = append(desc, fmt.Sprintf("in month %s", month))
	}
	if weekday != "*" {
		if idx, err := strconv.Atoi(weekday); err == nil && idx >= 0 && idx <= 6 {
			desc = append(desc, fmt.Sprintf("on %s", weekdayNames[idx]))
		} else {
			desc = append(desc, fmt.Sprintf("on weekday %s", weekday))
		}
	}

	if len(desc) == 0 {
		return expression
	}
	return strings.Join(desc, " ")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

func padMinute(minute string) string {
	if len(minute) == 1 {
		return "0" + minute
	}
	return minute
}
