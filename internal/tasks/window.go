package tasks

import (
	"strings"
	"time"

	"github.com/yourusername/task-manager/internal/apperr"
	"github.com/yourusername/task-manager/internal/storage"
)

const dateLayout = "2006-01-02"

const (
	windowToday = "today"
	windowWeek  = "week"
)

var errInvalidDate = apperr.Validation("Due date must be a valid date (YYYY-MM-DD or RFC 3339)")

// parseDate は YYYY-MM-DD（ローカル時刻の0時）または RFC 3339 の日時を解釈します。
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errInvalidDate
	}
	if t, err := time.ParseInLocation(dateLayout, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, errInvalidDate
}

// startOfDay は t と同じ日の 0 時を返します。
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dueWindow は期限フィルタの式を [開始, 終了) の区間に変換します。
//
//	today      -> [今日0時, 明日0時)
//	week       -> [今日0時, 7日後0時)
//	YYYY-MM-DD -> [その日0時, 翌日0時)
//
// 日付として解釈できない式は入力エラーです。
func dueWindow(expr string, now time.Time) (storage.DateRange, error) {
	today := startOfDay(now)
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case windowToday:
		return storage.DateRange{From: today, To: today.AddDate(0, 0, 1)}, nil
	case windowWeek:
		return storage.DateRange{From: today, To: today.AddDate(0, 0, 7)}, nil
	}

	day, err := parseDate(expr, now.Location())
	if err != nil {
		return storage.DateRange{}, err
	}
	start := startOfDay(day)
	return storage.DateRange{From: start, To: start.AddDate(0, 0, 1)}, nil
}
