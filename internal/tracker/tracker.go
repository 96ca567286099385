// Package tracker holds the challenge state machine. Every function takes a
// challenge by value and returns a new value; the input is never modified.
package tracker

import (
	"errors"
	"math"
	"time"

	"QH_quranhabits/internal/model"
)

var (
	ErrChallengeCompleted = errors.New("challenge already completed")
	ErrNotAdvanceable     = errors.New("challenge has no day sequence")
	ErrDayNotComplete     = errors.New("all habits of the current day must be done before advancing")
	ErrKindMismatch       = errors.New("operation does not apply to this challenge kind")
	ErrInvalidHabitIndex  = errors.New("habit index out of range")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDateKey     = errors.New("invalid date key")
)

const (
	DateLayout = "2006-01-02"

	// DhikrResetAmount clears today's dhikr count without touching the lifetime total.
	DhikrResetAmount = -1

	// MaxLogAmount bounds a single dhikr increment.
	MaxLogAmount = 100000
)

type Stats struct {
	DailyTarget int     `json:"daily_target"`
	Logged      int     `json:"logged"`
	Total       int     `json:"total"`
	Percentage  float64 `json:"percentage"`
	CurrentDate string  `json:"current_date"`
	CanAdvance  bool    `json:"can_advance"`
}

// DateKey formats t as a UTC calendar date, the same key the browser client writes.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

// DateForDayIndex returns the UTC calendar date of the index-th day of a challenge
// that started at start.
func DateForDayIndex(start time.Time, index int) string {
	y, m, d := start.UTC().Date()
	return DateKey(time.Date(y, m, d+index, 0, 0, 0, 0, time.UTC))
}

// CurrentDate is the date key of the challenge's current day. A missing start date
// falls back to now.
func CurrentDate(c model.Challenge, now time.Time) string {
	start := c.StartDate
	if start.IsZero() {
		start = now
	}
	return DateForDayIndex(start, c.CurrentDayIndex)
}

func Advance(c model.Challenge) (model.Challenge, error) {
	if !c.Bounded() {
		return c, ErrNotAdvanceable
	}
	if c.Completed || c.CurrentDayIndex >= c.DurationDays {
		return c, ErrChallengeCompleted
	}

	next := c.Clone()
	next.CurrentDayIndex++
	next.Completed = next.CurrentDayIndex >= next.DurationDays
	return next, nil
}

// CanAdvance reports whether the user may move on to the next day. Reading plans
// advance on self-report; habit lists need every habit of the current day done.
func CanAdvance(c model.Challenge, now time.Time) bool {
	if c.Completed || c.CurrentDayIndex >= c.DurationDays {
		return false
	}

	switch p := c.Plan.(type) {
	case model.QuranPlan:
		return true
	case model.HabitPlan:
		if len(p.Habits) == 0 {
			return false
		}
		done := model.NormalizeIndexSet(p.Logs[CurrentDate(c, now)], len(p.Habits))
		return len(done) == len(p.Habits)
	}
	return false
}

// AdvanceDay applies the completion gate before advancing.
func AdvanceDay(c model.Challenge, now time.Time) (model.Challenge, error) {
	if _, ok := c.AsHabit(); ok && !c.Completed && !CanAdvance(c, now) {
		return c, ErrDayNotComplete
	}
	return Advance(c)
}

// DailyTarget is recomputed on every call so edits to the duration or the totals
// change it retroactively.
func DailyTarget(c model.Challenge) int {
	switch p := c.Plan.(type) {
	case model.QuranPlan:
		if p.TotalUnits <= 0 {
			return 0
		}
		days := c.DurationDays
		if days < 1 {
			days = 1
		}
		return (p.TotalUnits + days - 1) / days
	case model.DhikrPlan:
		return p.TargetPerDay
	case model.HabitPlan:
		return len(p.Habits)
	}
	return 0
}

// Percentage is clamped to [0, 100] for every kind.
func Percentage(c model.Challenge, today string) float64 {
	switch p := c.Plan.(type) {
	case model.QuranPlan:
		return ratio(p.Logs.Sum(), p.TotalUnits)
	case model.DhikrPlan:
		return ratio(p.Logs[today], p.TargetPerDay)
	case model.HabitPlan:
		return ratio(len(p.Logs), c.DurationDays)
	}
	return 0
}

func ToggleHabit(c model.Challenge, dateKey string, index int) (model.Challenge, error) {
	p, ok := c.AsHabit()
	if !ok {
		return c, ErrKindMismatch
	}
	if _, err := ParseDateKey(dateKey); err != nil {
		return c, err
	}
	if index < 0 || index >= len(p.Habits) {
		return c, ErrInvalidHabitIndex
	}

	next := c.Clone()
	plan := next.Plan.(model.HabitPlan)
	if plan.Logs == nil {
		plan.Logs = model.HabitLog{}
	}

	current := plan.Logs[dateKey]
	updated := make([]int, 0, len(current)+1)
	found := false
	for _, i := range current {
		if i == index {
			found = true
			continue
		}
		updated = append(updated, i)
	}
	if !found {
		updated = append(updated, index)
	}

	updated = model.NormalizeIndexSet(updated, len(plan.Habits))
	if len(updated) == 0 {
		delete(plan.Logs, dateKey)
	} else {
		plan.Logs[dateKey] = updated
	}
	next.Plan = plan
	return next, nil
}

// LogDhikr adds amount to the count of dateKey and to the lifetime total.
// DhikrResetAmount sets the day's count to zero and leaves the lifetime total alone.
func LogDhikr(c model.Challenge, dateKey string, amount int) (model.Challenge, error) {
	if _, ok := c.AsDhikr(); !ok {
		return c, ErrKindMismatch
	}
	if _, err := ParseDateKey(dateKey); err != nil {
		return c, err
	}
	if amount != DhikrResetAmount && (amount <= 0 || amount > MaxLogAmount) {
		return c, ErrInvalidAmount
	}

	next := c.Clone()
	plan := next.Plan.(model.DhikrPlan)
	if plan.Logs == nil {
		plan.Logs = model.CountLog{}
	}
	if amount != DhikrResetAmount &&
		(plan.Logs[dateKey] > model.MaxCount-amount || plan.LifetimeCount > model.MaxCount-amount) {
		return c, ErrInvalidAmount
	}

	if amount == DhikrResetAmount {
		plan.Logs[dateKey] = 0
	} else {
		plan.Logs[dateKey] += amount
		plan.LifetimeCount += amount
	}
	next.Plan = plan
	return next, nil
}

// LogQuran records the units read on the current day, replacing any earlier value.
func LogQuran(c model.Challenge, amount int) (model.Challenge, error) {
	if _, ok := c.AsQuran(); !ok {
		return c, ErrKindMismatch
	}
	if amount < 0 || amount > model.MaxCount {
		return c, ErrInvalidAmount
	}
	if c.Completed {
		return c, ErrChallengeCompleted
	}

	next := c.Clone()
	plan := next.Plan.(model.QuranPlan)
	if plan.Logs == nil {
		plan.Logs = model.CountLog{}
	}
	day := model.DayIndexKey(c.CurrentDayIndex)
	if plan.Logs.Sum()-plan.Logs[day] > model.MaxCount-amount {
		return c, ErrInvalidAmount
	}
	plan.Logs[day] = amount
	plan.UnitsCompleted = plan.Logs.Sum()
	next.Plan = plan
	return next, nil
}

func Summarize(c model.Challenge, now time.Time) Stats {
	today := DateKey(now)
	stats := Stats{
		DailyTarget: DailyTarget(c),
		Percentage:  Percentage(c, today),
		CurrentDate: CurrentDate(c, now),
		CanAdvance:  CanAdvance(c, now),
	}

	switch p := c.Plan.(type) {
	case model.QuranPlan:
		stats.Logged = p.Logs.Sum()
		stats.Total = p.TotalUnits
	case model.DhikrPlan:
		stats.CurrentDate = today
		stats.Logged = p.Logs[today]
		stats.Total = p.LifetimeCount
	case model.HabitPlan:
		stats.Logged = len(p.Logs[stats.CurrentDate])
		stats.Total = len(p.Logs)
	}
	return stats
}

func ratio(done, total int) float64 {
	if total <= 0 || done <= 0 {
		return 0
	}
	return math.Min(100, float64(done)/float64(total)*100)
}
