package tasks

import (
	"testing"
	"time"

	"github.com/yourusername/task-manager/internal/apperr"
)

func TestDueWindowToday(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	now := time.Date(2024, 3, 10, 15, 30, 0, 0, loc)

	window, err := dueWindow("today", now)
	if err != nil {
		t.Fatalf("dueWindow returned error: %v", err)
	}
	if !window.From.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected from: %s", window.From)
	}
	if !window.To.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)) {
		t.Fatalf("unexpected to: %s", window.To)
	}
	if !window.Contains(time.Date(2024, 3, 10, 23, 59, 59, 0, loc)) {
		t.Fatal("end of today must be included")
	}
	if window.Contains(time.Date(2024, 3, 11, 0, 0, 0, 0, loc)) {
		t.Fatal("start of tomorrow must be excluded")
	}
}

func TestDueWindowWeek(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	window, err := dueWindow("Week", now)
	if err != nil {
		t.Fatalf("dueWindow returned error: %v", err)
	}
	if got := window.To.Sub(window.From); got != 7*24*time.Hour {
		t.Fatalf("unexpected window length: %s", got)
	}
	if !window.Contains(time.Date(2024, 3, 16, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("day six must be included")
	}
	if window.Contains(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)) {
		t.Fatal("day seven must be excluded")
	}
}

func TestDueWindowLiteralDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

	window, err := dueWindow("2024-04-01", now)
	if err != nil {
		t.Fatalf("dueWindow returned error: %v", err)
	}
	if !window.From.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from: %s", window.From)
	}
	if !window.To.Equal(time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected to: %s", window.To)
	}
}

func TestDueWindowRejectsGarbage(t *testing.T) {
	_, err := dueWindow("next-tuesday", time.Now())
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseDateAcceptsRFC3339(t *testing.T) {
	got, err := parseDate("2024-05-01T12:00:00Z", time.UTC)
	if err != nil {
		t.Fatalf("parseDate returned error: %v", err)
	}
	if !got.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %s", got)
	}
}
