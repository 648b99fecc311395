package cronexpr

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{"every minute", "* * * * *", false},
		{"step minutes", "*/15 * * * *", false},
		{"range with step and weekdays", "*/15 6-19 * * 1-5", false},
		{"list", "0,30 9,17 * * *", false},
		{"too few fields", "* * * *", true},
		{"six fields", "0 * * * * *", true},
		{"bad minute", "61 * * * *", true},
		{"garbage", "not a cron", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.expression)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.expression, err, tt.wantErr)
			}
		})
	}
}

func TestNextIsStrictlyLater(t *testing.T) {
	ref := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC) // Monday 06:00
	next, err := Next("*/15 6-19 * * 1-5", ref)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	want := time.Date(2024, 3, 4, 6, 15, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Next() = %v, want same-day %v", next, want)
	}
}

func TestNextRollsToNextWeek(t *testing.T) {
	// Friday 19:01 is past the last weekday slot; the next fire must be
	// Monday 06:00, not Saturday.
	ref := time.Date(2024, 3, 8, 19, 1, 0, 0, time.UTC) // Friday 19:01
	next, err := Next("*/15 6-19 * * 1-5", ref)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	want := time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC) // Monday 06:00
	if !next.Equal(want) {
		t.Errorf("Next() = %v, want %v", next, want)
	}
}

func TestNextAfterStaysAligned(t *testing.T) {
	fire := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	// Dispatch ran 40 minutes late; the next slot must stay on the
	// 15-minute grid and be in the future.
	now := fire.Add(40 * time.Minute)
	next, err := NextAfter("*/15 6-19 * * 1-5", fire, now)
	if err != nil {
		t.Fatalf("NextAfter() error = %v", err)
	}
	want := time.Date(2024, 3, 4, 6, 45, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("NextAfter() = %v, want %v", next, want)
	}
}

// fieldSet is a generated constraint for one cron field, carrying both
// the rendered expression fragment and the allowed values for the
// brute-force reference scan.
type fieldSet struct {
	expr    string
	allowed map[int]bool
}

func wildcard(min, max int) fieldSet {
	allowed := make(map[int]bool)
	for v := min; v <= max; v++ {
		allowed[v] = true
	}
	return fieldSet{expr: "*", allowed: allowed}
}

func randomList(rng *rand.Rand, min, max, maxLen int) fieldSet {
	n := 1 + rng.Intn(maxLen)
	allowed := make(map[int]bool)
	for i := 0; i < n; i++ {
		allowed[min+rng.Intn(max-min+1)] = true
	}
	values := make([]int, 0, len(allowed))
	for v := range allowed {
		values = append(values, v)
	}
	sort.Ints(values)
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return fieldSet{expr: strings.Join(parts, ","), allowed: allowed}
}

func TestNextMatchesBruteForceScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 200; i++ {
		minute := randomList(rng, 0, 59, 4)
		hour := randomList(rng, 0, 23, 3)

		// Keep day-of-month and day-of-week from being restricted at
		// the same time so the scan does not need cron's either-or
		// quirk for the two day fields.
		dom := wildcard(1, 31)
		dow := wildcard(0, 6)
		if rng.Intn(2) == 0 {
			dow = randomList(rng, 0, 6, 3)
		} else if rng.Intn(3) == 0 {
			dom = randomList(rng, 1, 28, 3)
		}

		expr := fmt.Sprintf("%s %s %s * %s", minute.expr, hour.expr, dom.expr, dow.expr)
		ref := base.Add(time.Duration(rng.Intn(90*24*60)) * time.Minute)

		got, err := Next(expr, ref)
		if err != nil {
			t.Fatalf("Next(%q) error = %v", expr, err)
		}
		if !got.After(ref) {
			t.Fatalf("Next(%q, %v) = %v, not strictly later", expr, ref, got)
		}

		// Brute-force scan minute by minute over a bounded window.
		want := time.Time{}
		scan := ref.Truncate(time.Minute).Add(time.Minute)
		for end := scan.Add(60 * 24 * time.Hour); scan.Before(end); scan = scan.Add(time.Minute) {
			if minute.allowed[scan.Minute()] &&
				hour.allowed[scan.Hour()] &&
				dom.allowed[scan.Day()] &&
				dow.allowed[int(scan.Weekday())] {
				want = scan
				break
			}
		}
		if want.IsZero() {
			t.Fatalf("scan found no match for %q in window", expr)
		}
		if !got.Equal(want) {
			t.Errorf("Next(%q, %v) = %v, brute-force scan = %v", expr, ref, got, want)
		}
	}
}
