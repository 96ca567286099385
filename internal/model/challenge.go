package model

import (
	"math"
	"sort"
	"strconv"
	"time"
)

type ChallengeKind string

const (
	KindQuran ChallengeKind = "quran"
	KindDhikr ChallengeKind = "duco"
	KindHabit ChallengeKind = "habit"
)

func (k ChallengeKind) Valid() bool {
	switch k {
	case KindQuran, KindDhikr, KindHabit:
		return true
	}
	return false
}

type ReadingMode string

const (
	ReadingWhole ReadingMode = "whole"
	ReadingSurah ReadingMode = "surah"
)

type UnitType string

const (
	UnitPages UnitType = "pages"
	UnitAyahs UnitType = "ayahs"
)

const (
	TotalMushafPages   = 604
	TotalChapters      = 114
	MaxAyahsPerChapter = 286
	DefaultDhikrTarget = 33

	// MaxCount bounds every stored count and running total.
	MaxCount = math.MaxInt32
)

type Challenge struct {
	ID              string
	Title           string
	CreatedAt       time.Time
	StartDate       time.Time
	DurationDays    int
	CurrentDayIndex int
	Completed       bool
	Plan            Plan
}

// Plan holds the kind-specific configuration and logs of a challenge.
// Implementations are QuranPlan, DhikrPlan and HabitPlan.
type Plan interface {
	Kind() ChallengeKind
	clonePlan() Plan
}

type QuranPlan struct {
	Mode           ReadingMode
	ChapterID      *int
	ChapterName    string
	TotalUnits     int
	UnitType       UnitType
	UnitsCompleted int
	// Logs is keyed by the stringified day index.
	Logs CountLog
}

func (QuranPlan) Kind() ChallengeKind { return KindQuran }

func (p QuranPlan) clonePlan() Plan {
	if p.ChapterID != nil {
		id := *p.ChapterID
		p.ChapterID = &id
	}
	p.Logs = p.Logs.Clone()
	return p
}

type DhikrPlan struct {
	TargetPerDay  int
	Text          string
	LifetimeCount int
	// Logs is keyed by calendar date.
	Logs CountLog
}

func (DhikrPlan) Kind() ChallengeKind { return KindDhikr }

func (p DhikrPlan) clonePlan() Plan {
	p.Logs = p.Logs.Clone()
	return p
}

type HabitPlan struct {
	Habits []string
	// Logs is keyed by calendar date.
	Logs HabitLog
}

func (HabitPlan) Kind() ChallengeKind { return KindHabit }

func (p HabitPlan) clonePlan() Plan {
	p.Habits = append([]string(nil), p.Habits...)
	p.Logs = p.Logs.Clone()
	return p
}

func (c Challenge) Kind() ChallengeKind {
	if c.Plan == nil {
		return ""
	}
	return c.Plan.Kind()
}

// Bounded reports whether the challenge runs over a fixed number of days.
func (c Challenge) Bounded() bool {
	return c.Kind() != KindDhikr
}

// Clone returns a deep copy; logs and habit lists are not shared.
func (c Challenge) Clone() Challenge {
	if c.Plan != nil {
		c.Plan = c.Plan.clonePlan()
	}
	return c
}

func (c Challenge) AsQuran() (QuranPlan, bool) {
	p, ok := c.Plan.(QuranPlan)
	return p, ok
}

func (c Challenge) AsDhikr() (DhikrPlan, bool) {
	p, ok := c.Plan.(DhikrPlan)
	return p, ok
}

func (c Challenge) AsHabit() (HabitPlan, bool) {
	p, ok := c.Plan.(HabitPlan)
	return p, ok
}

type CountLog map[string]int

func (l CountLog) Clone() CountLog {
	out := make(CountLog, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

func (l CountLog) Sum() int {
	total := 0
	for _, v := range l {
		total += v
	}
	return total
}

func DayIndexKey(index int) string {
	return strconv.Itoa(index)
}

// HabitLog maps a date key to the sorted set of completed habit indices.
type HabitLog map[string][]int

func (l HabitLog) Clone() HabitLog {
	out := make(HabitLog, len(l))
	for k, v := range l {
		out[k] = append([]int(nil), v...)
	}
	return out
}

func (l HabitLog) Has(key string, index int) bool {
	for _, i := range l[key] {
		if i == index {
			return true
		}
	}
	return false
}

// NormalizeIndexSet sorts and de-duplicates indices, dropping those outside [0, size).
func NormalizeIndexSet(indices []int, size int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= size {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
