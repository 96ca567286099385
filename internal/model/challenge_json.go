package model

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"
)

var ErrUnknownChallengeKind = errors.New("unknown challenge kind")

// isoLayout matches the millisecond ISO-8601 timestamps written by the browser client.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

type challengeWire struct {
	ID              string                     `json:"id"`
	Type            ChallengeKind              `json:"type"`
	Title           string                     `json:"title"`
	CreatedAt       string                     `json:"createdAt"`
	StartDate       string                     `json:"startDate"`
	DurationDays    int                        `json:"durationDays"`
	CurrentDayIndex int                        `json:"currentDayIndex"`
	Completed       bool                       `json:"completed"`
	QuranConfig     json.RawMessage            `json:"quranConfig,omitempty"`
	DuaConfig       json.RawMessage            `json:"duaConfig,omitempty"`
	HabitConfig     json.RawMessage            `json:"habitConfig,omitempty"`
	Logs            map[string]json.RawMessage `json:"logs"`
}

type quranConfigWire struct {
	Mode           ReadingMode `json:"mode"`
	SurahID        *int        `json:"surahId,omitempty"`
	SurahName      string      `json:"surahName,omitempty"`
	TotalUnits     int         `json:"totalUnits"`
	UnitType       UnitType    `json:"unitType,omitempty"`
	UnitsCompleted int         `json:"unitsCompleted"`
}

type duaConfigWire struct {
	TargetCountPerDay  int    `json:"targetCountPerDay"`
	Text               string `json:"text"`
	TotalLifetimeCount int    `json:"totalLifetimeCount"`
}

type habitConfigWire struct {
	Habits []string `json:"habits"`
}

type challengeOut struct {
	ID              string           `json:"id"`
	Type            ChallengeKind    `json:"type"`
	Title           string           `json:"title"`
	CreatedAt       string           `json:"createdAt"`
	StartDate       string           `json:"startDate"`
	DurationDays    int              `json:"durationDays"`
	CurrentDayIndex int              `json:"currentDayIndex"`
	Completed       bool             `json:"completed"`
	QuranConfig     *quranConfigWire `json:"quranConfig,omitempty"`
	DuaConfig       *duaConfigWire   `json:"duaConfig,omitempty"`
	HabitConfig     *habitConfigWire `json:"habitConfig,omitempty"`
	Logs            interface{}      `json:"logs"`
}

func (c Challenge) MarshalJSON() ([]byte, error) {
	out := challengeOut{
		ID:              c.ID,
		Type:            c.Kind(),
		Title:           c.Title,
		CreatedAt:       formatTime(c.CreatedAt),
		StartDate:       formatTime(c.StartDate),
		DurationDays:    c.DurationDays,
		CurrentDayIndex: c.CurrentDayIndex,
		Completed:       c.Completed,
		Logs:            map[string]int{},
	}

	switch p := c.Plan.(type) {
	case QuranPlan:
		out.QuranConfig = &quranConfigWire{
			Mode:           p.Mode,
			SurahID:        p.ChapterID,
			SurahName:      p.ChapterName,
			TotalUnits:     p.TotalUnits,
			UnitType:       p.UnitType,
			UnitsCompleted: p.UnitsCompleted,
		}
		out.Logs = nonNilCounts(p.Logs)
	case DhikrPlan:
		out.DuaConfig = &duaConfigWire{
			TargetCountPerDay:  p.TargetPerDay,
			Text:               p.Text,
			TotalLifetimeCount: p.LifetimeCount,
		}
		out.Logs = nonNilCounts(p.Logs)
	case HabitPlan:
		habits := p.Habits
		if habits == nil {
			habits = []string{}
		}
		out.HabitConfig = &habitConfigWire{Habits: habits}
		logs := make(map[string][]int, len(p.Logs))
		for k, v := range p.Logs {
			if v == nil {
				v = []int{}
			}
			logs[k] = v
		}
		out.Logs = logs
	default:
		return nil, fmt.Errorf("challenge %q: %w", c.ID, ErrUnknownChallengeKind)
	}

	return json.Marshal(out)
}

// UnmarshalJSON accepts records written by any earlier client version. Missing or
// malformed kind configuration decodes to the zero configuration of the kind and
// log values of the wrong shape are dropped.
func (c *Challenge) UnmarshalJSON(data []byte) error {
	var w challengeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("challenge %q has type %q: %w", w.ID, w.Type, ErrUnknownChallengeKind)
	}

	out := Challenge{
		ID:              w.ID,
		Title:           w.Title,
		CreatedAt:       parseTime(w.CreatedAt),
		StartDate:       parseTime(w.StartDate),
		DurationDays:    w.DurationDays,
		CurrentDayIndex: w.CurrentDayIndex,
		Completed:       w.Completed,
	}

	switch w.Type {
	case KindQuran:
		var cfg quranConfigWire
		if !decodeLenient(w.QuranConfig, &cfg) {
			cfg = quranConfigWire{}
		}
		plan := QuranPlan{
			Mode:           cfg.Mode,
			ChapterID:      cfg.SurahID,
			ChapterName:    cfg.SurahName,
			TotalUnits:     clampCount(cfg.TotalUnits),
			UnitType:       cfg.UnitType,
			UnitsCompleted: clampCount(cfg.UnitsCompleted),
			Logs:           decodeCountLog(w.Logs),
		}
		if plan.Mode == "" {
			plan.Mode = ReadingWhole
		}
		if plan.UnitType == "" {
			plan.UnitType = UnitPages
		}
		out.Plan = plan
	case KindDhikr:
		var cfg duaConfigWire
		if !decodeLenient(w.DuaConfig, &cfg) {
			cfg = duaConfigWire{}
		}
		out.Plan = DhikrPlan{
			TargetPerDay:  clampCount(cfg.TargetCountPerDay),
			Text:          cfg.Text,
			LifetimeCount: clampCount(cfg.TotalLifetimeCount),
			Logs:          decodeCountLog(w.Logs),
		}
		out.DurationDays = 0
		out.CurrentDayIndex = 0
		out.Completed = false
	case KindHabit:
		var cfg habitConfigWire
		if !decodeLenient(w.HabitConfig, &cfg) {
			cfg = habitConfigWire{}
		}
		if cfg.Habits == nil {
			cfg.Habits = []string{}
		}
		out.Plan = HabitPlan{
			Habits: cfg.Habits,
			Logs:   decodeHabitLog(w.Logs, len(cfg.Habits)),
		}
	}

	if out.DurationDays < 0 {
		out.DurationDays = 0
	}
	if out.CurrentDayIndex < 0 {
		out.CurrentDayIndex = 0
	}
	if out.Bounded() && out.DurationDays > 0 && out.CurrentDayIndex >= out.DurationDays {
		out.CurrentDayIndex = out.DurationDays
		out.Completed = true
	}

	*c = out
	return nil
}

// DecodeChallenges decodes a stored challenge list. Data that is not a JSON array
// is an error; individual elements that cannot be decoded are skipped.
func DecodeChallenges(data []byte) ([]Challenge, []error, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, err
	}

	var skipped []error
	out := make([]Challenge, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, elem := range raw {
		var c Challenge
		if err := json.Unmarshal(elem, &c); err != nil {
			skipped = append(skipped, fmt.Errorf("element %d: %w", i, err))
			continue
		}
		if _, dup := seen[c.ID]; dup {
			skipped = append(skipped, fmt.Errorf("element %d: duplicate id %q", i, c.ID))
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, skipped, nil
}

func EncodeChallenges(challenges []Challenge) ([]byte, error) {
	if challenges == nil {
		challenges = []Challenge{}
	}
	return json.Marshal(challenges)
}

func decodeLenient(raw json.RawMessage, v interface{}) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Unmarshal(trimmed, v) == nil
}

func decodeCountLog(raw map[string]json.RawMessage) CountLog {
	logs := make(CountLog, len(raw))
	for k, v := range raw {
		var n float64
		if err := json.Unmarshal(v, &n); err != nil {
			continue
		}
		if n < 0 || n > MaxCount || n != math.Trunc(n) {
			continue
		}
		logs[k] = int(n)
	}
	return logs
}

func decodeHabitLog(raw map[string]json.RawMessage, size int) HabitLog {
	logs := make(HabitLog, len(raw))
	for k, v := range raw {
		var indices []int
		if err := json.Unmarshal(v, &indices); err != nil {
			continue
		}
		set := NormalizeIndexSet(indices, size)
		if len(set) == 0 {
			continue
		}
		logs[k] = set
	}
	return logs
}

func nonNilCounts(l CountLog) CountLog {
	if l == nil {
		return CountLog{}
	}
	return l
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampCount(n int) int {
	if n > MaxCount {
		return MaxCount
	}
	return nonNegative(n)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
