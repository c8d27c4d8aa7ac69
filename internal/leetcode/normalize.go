package leetcode

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	difficultyAll    = "All"
	difficultyEasy   = "Easy"
	difficultyMedium = "Medium"
	difficultyHard   = "Hard"
)

// Payloads groups the raw responses that make up one UserData. Profile is
// required; Submissions may be nil when that fetch failed or was skipped.
type Payloads struct {
	Username    string
	Profile     *RawResponse
	Submissions *RawResponse
	Limit       int
	// Now anchors the current streak. Zero anchors it at the latest active
	// calendar day so the result depends only on the payloads.
	Now time.Time
}

// Normalize maps raw upstream responses onto UserData. It fails with
// *NotFoundError when the upstream does not know the user and *SchemaError
// when the payload is missing required fields. A broken calendar or
// submissions payload degrades to an empty value instead.
func Normalize(p Payloads) (*UserData, error) {
	if p.Profile == nil {
		return nil, &SchemaError{Field: "profile"}
	}
	for _, msg := range p.Profile.ErrorMessages() {
		if IsNotFoundMessage(msg) {
			return nil, &NotFoundError{Username: p.Username}
		}
	}

	var payload profilePayload
	if err := decodeData(p.Profile, &payload); err != nil {
		return nil, err
	}
	mu := payload.MatchedUser
	if mu == nil {
		return nil, &NotFoundError{Username: p.Username}
	}
	if mu.SubmitStats == nil || len(mu.SubmitStats.AcSubmissionNum) == 0 {
		return nil, &SchemaError{Field: "matchedUser.submitStats.acSubmissionNum"}
	}
	if len(payload.AllQuestionsCount) == 0 {
		return nil, &SchemaError{Field: "allQuestionsCount"}
	}

	solved := byDifficulty(mu.SubmitStats.AcSubmissionNum)
	totals := byDifficulty(payload.AllQuestionsCount)
	acAll, ok := solved[difficultyAll]
	if !ok {
		return nil, &SchemaError{Field: "matchedUser.submitStats.acSubmissionNum[All]"}
	}

	// accepted submissions over all submissions; without a total row fall
	// back to solved problems over accepted submissions
	acceptance := percent(acAll.Count, acAll.Submissions)
	if all, ok := byDifficulty(mu.SubmitStats.TotalSubmissionNum)[difficultyAll]; ok {
		acceptance = percent(acAll.Submissions, all.Submissions)
	}

	totalQuestions := totals[difficultyAll].Count
	if _, ok := totals[difficultyAll]; !ok {
		totalQuestions = totals[difficultyEasy].Count + totals[difficultyMedium].Count + totals[difficultyHard].Count
	}

	ud := &UserData{
		Profile: Profile{Username: mu.Username},
		Progress: Progress{
			TotalSolved:    acAll.Count,
			TotalQuestions: totalQuestions,
			PerDifficulty: PerDifficulty{
				Easy:   difficultyProgress(solved[difficultyEasy].Count, totals[difficultyEasy].Count),
				Medium: difficultyProgress(solved[difficultyMedium].Count, totals[difficultyMedium].Count),
				Hard:   difficultyProgress(solved[difficultyHard].Count, totals[difficultyHard].Count),
			},
			AcceptanceRate: acceptance,
		},
		SubmissionCalendar: map[string]int{},
		RecentSubmissions:  []SubmissionRecord{},
	}
	if ud.Profile.Username == "" {
		ud.Profile.Username = p.Username
	}
	if mu.Profile != nil {
		ud.Profile.DisplayName = mu.Profile.RealName
		ud.Profile.AvatarURL = mu.Profile.UserAvatar
		if mu.Profile.Ranking != nil {
			ud.Progress.Ranking = *mu.Profile.Ranking
		}
	}
	if mu.SubmissionCalendar != nil {
		ud.SubmissionCalendar = DecodeCalendar(*mu.SubmissionCalendar)
	}

	if p.Submissions != nil {
		if subs, err := NormalizeSubmissions(p.Submissions, p.Limit); err == nil {
			ud.RecentSubmissions = subs
		}
	}

	ud.Activity = Streaks(ud.SubmissionCalendar, p.Now)
	return ud, nil
}

// NormalizeSubmissions returns the recent submissions newest first, at most
// limit of them when limit is positive.
func NormalizeSubmissions(raw *RawResponse, limit int) ([]SubmissionRecord, error) {
	if len(raw.Errors) > 0 {
		return nil, &SchemaError{Field: "recentSubmissionList", Err: errors.New(strings.Join(raw.ErrorMessages(), "; "))}
	}
	var payload recentSubmissionsPayload
	if err := decodeData(raw, &payload); err != nil {
		return nil, err
	}

	out := make([]SubmissionRecord, 0, len(payload.RecentSubmissionList))
	for _, s := range payload.RecentSubmissionList {
		ts, err := s.Timestamp.Int64()
		if err != nil {
			return nil, &SchemaError{Field: "recentSubmissionList.timestamp", Err: err}
		}
		out = append(out, SubmissionRecord{
			ID:                    string(s.ID),
			ProblemTitle:          s.Title,
			ProblemSlug:           s.TitleSlug,
			TimestampEpochSeconds: ts,
			Language:              s.Lang,
			Runtime:               s.Runtime,
			Verdict:               s.StatusDisplay,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimestampEpochSeconds > out[j].TimestampEpochSeconds
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func NormalizeDaily(raw *RawResponse) (*DailyChallenge, error) {
	var payload dailyPayload
	if err := decodeData(raw, &payload); err != nil {
		return nil, err
	}
	q := payload.ActiveDailyCodingChallengeQuestion
	if q == nil {
		return nil, &SchemaError{Field: "activeDailyCodingChallengeQuestion"}
	}
	link := q.Link
	if strings.HasPrefix(link, "/") {
		link = DefaultOrigin + link
	}
	return &DailyChallenge{
		Date:       q.Date,
		Link:       link,
		QuestionID: q.Question.QuestionFrontendID,
		Title:      q.Question.Title,
		Slug:       q.Question.TitleSlug,
		Difficulty: q.Question.Difficulty,
		AcRate:     round2(q.Question.AcRate),
	}, nil
}

func NormalizeUserStatus(raw *RawResponse) (*UserStatus, error) {
	var payload userStatusPayload
	if err := decodeData(raw, &payload); err != nil {
		return nil, err
	}
	if payload.UserStatus == nil {
		return nil, &SchemaError{Field: "userStatus"}
	}
	return &UserStatus{
		SignedIn: payload.UserStatus.IsSignedIn,
		Username: payload.UserStatus.Username,
	}, nil
}

func decodeData(raw *RawResponse, out any) error {
	data := bytes.TrimSpace(raw.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if len(raw.Errors) > 0 {
			return &SchemaError{Field: "data", Err: errors.New(strings.Join(raw.ErrorMessages(), "; "))}
		}
		return &SchemaError{Field: "data"}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &SchemaError{Field: "data", Err: err}
	}
	return nil
}

func byDifficulty(rows []difficultyCount) map[string]difficultyCount {
	m := make(map[string]difficultyCount, len(rows))
	for _, r := range rows {
		m[r.Difficulty] = r
	}
	return m
}

func difficultyProgress(solved, total int) DifficultyProgress {
	return DifficultyProgress{Solved: solved, Total: total, Percent: percent(solved, total)}
}

// percent is n/d*100 rounded to two places, and 0 when d is 0.
func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return round2(float64(n) / float64(d) * 100)
}

func round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Round(f*100) / 100
}
