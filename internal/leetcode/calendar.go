package leetcode

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

const secondsPerDay = 24 * 60 * 60

type Activity struct {
	CurrentStreak    int   `json:"currentStreak"`
	LongestStreak    int   `json:"longestStreak"`
	ActiveDays       int   `json:"activeDays"`
	TotalSubmissions int   `json:"totalSubmissions"`
	LastActiveDay    int64 `json:"lastActiveDay,omitempty"`
}

// DecodeCalendar parses the submissionCalendar field, a JSON object encoded
// as a string inside the GraphQL payload. Malformed input yields an empty
// calendar.
func DecodeCalendar(raw string) map[string]int {
	cal := map[string]int{}
	if raw == "" {
		return cal
	}
	var parsed map[string]int
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return cal
	}
	for k, v := range parsed {
		if _, err := strconv.ParseInt(k, 10, 64); err != nil {
			continue
		}
		cal[k] = v
	}
	return cal
}

// Streaks derives activity figures from a calendar keyed by day epoch. Days
// are UTC. The current streak still counts when today has no submissions yet
// but yesterday does. A zero now counts back from the last active day.
func Streaks(cal map[string]int, now time.Time) Activity {
	var a Activity
	active := make(map[int64]bool, len(cal))
	days := make([]int64, 0, len(cal))
	for k, v := range cal {
		if v <= 0 {
			continue
		}
		ts, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		day := floorDiv(ts, secondsPerDay)
		a.TotalSubmissions += v
		if !active[day] {
			active[day] = true
			days = append(days, day)
		}
	}
	a.ActiveDays = len(days)
	if len(days) == 0 {
		return a
	}

	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	a.LastActiveDay = days[len(days)-1] * secondsPerDay

	run := 1
	a.LongestStreak = 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > a.LongestStreak {
			a.LongestStreak = run
		}
	}

	day := days[len(days)-1]
	if !now.IsZero() {
		day = floorDiv(now.UTC().Unix(), secondsPerDay)
	}
	if !active[day] {
		day--
	}
	for active[day] {
		a.CurrentStreak++
		day--
	}
	return a
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
