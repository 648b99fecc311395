package cronexpr

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// parser accepts the standard 5-field form (minute hour dom month dow)
// with *, lists, ranges and step syntax.
var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Validate parses a 5-field cron expression and returns a descriptive
// error when the expression is malformed. Schedules are validated at
// save time so the dispatcher never sees an unparseable expression.
func Validate(expression string) error {
	if _, err := parser.Parse(expression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return nil
}

// Next returns the earliest time strictly after ref that satisfies the
// expression.
func Next(expression string, ref time.Time) (time.Time, error) {
	schedule, err := parser.Parse(expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return schedule.Next(ref), nil
}

// NextAfter returns the earliest aligned fire time strictly after both
// fireTime and now. Advancing from the previous fire time instead of the
// wall clock keeps the schedule aligned to its grid when a dispatch runs
// late; stepping past now prevents a catch-up storm after downtime.
func NextAfter(expression string, fireTime, now time.Time) (time.Time, error) {
	schedule, err := parser.Parse(expression)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}

	next := schedule.Next(fireTime)
	for !next.After(now) {
		next = schedule.Next(next)
	}
	return next, nil
}
