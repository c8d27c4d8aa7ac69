package leetcode

import (
	"embed"
	"strconv"
	"time"
)

//go:embed sample/*.json
var sampleFS embed.FS

// SampleUserData returns placeholder data for username, built from the
// bundled sample payloads through Normalize. Submission times are spread
// over the hours before now so the dashboard has something to draw.
func SampleUserData(username string, now time.Time) (*UserData, error) {
	profile, err := sampleFS.ReadFile("sample/profile.json")
	if err != nil {
		return nil, err
	}
	subs, err := sampleFS.ReadFile("sample/submissions.json")
	if err != nil {
		return nil, err
	}

	ud, err := Normalize(Payloads{
		Username:    username,
		Profile:     &RawResponse{Data: profile},
		Submissions: &RawResponse{Data: subs},
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	ud.Profile.Username = username
	cal := make(map[string]int)
	for i := range ud.RecentSubmissions {
		ts := now.Add(-time.Duration(i*6) * time.Hour).Unix()
		ud.RecentSubmissions[i].TimestampEpochSeconds = ts
		day := floorDiv(ts, secondsPerDay) * secondsPerDay
		cal[strconv.FormatInt(day, 10)]++
	}
	ud.SubmissionCalendar = cal
	ud.Activity = Streaks(cal, now)
	return ud, nil
}
