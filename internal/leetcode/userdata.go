package leetcode

import "time"

// UserData is the stable shape every dashboard view consumes.
type UserData struct {
	Profile            Profile            `json:"profile"`
	Progress           Progress           `json:"progress"`
	SubmissionCalendar map[string]int     `json:"submissionCalendar"`
	RecentSubmissions  []SubmissionRecord `json:"recentSubmissions"`
	Activity           Activity           `json:"activity"`
}

type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type Progress struct {
	TotalSolved    int           `json:"totalSolved"`
	TotalQuestions int           `json:"totalQuestions"`
	PerDifficulty  PerDifficulty `json:"perDifficulty"`
	AcceptanceRate float64       `json:"acceptanceRate"`
	Ranking        int           `json:"ranking"`
}

type PerDifficulty struct {
	Easy   DifficultyProgress `json:"easy"`
	Medium DifficultyProgress `json:"medium"`
	Hard   DifficultyProgress `json:"hard"`
}

type DifficultyProgress struct {
	Solved  int     `json:"solved"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

type SubmissionRecord struct {
	ID                    string `json:"id"`
	ProblemTitle          string `json:"problemTitle"`
	ProblemSlug           string `json:"problemSlug"`
	TimestampEpochSeconds int64  `json:"timestamp"`
	Language              string `json:"language"`
	Runtime               string `json:"runtime"`
	Verdict               string `json:"verdict"`
}

func (s SubmissionRecord) Time() time.Time {
	return time.Unix(s.TimestampEpochSeconds, 0).UTC()
}

func (s SubmissionRecord) Link() string {
	return "https://leetcode.com/problems/" + s.ProblemSlug + "/"
}

type DailyChallenge struct {
	Date       string  `json:"date"`
	Link       string  `json:"link"`
	QuestionID string  `json:"questionId"`
	Title      string  `json:"title"`
	Slug       string  `json:"slug"`
	Difficulty string  `json:"difficulty"`
	AcRate     float64 `json:"acRate"`
}

type UserStatus struct {
	SignedIn bool   `json:"signedIn"`
	Username string `json:"username,omitempty"`
}
