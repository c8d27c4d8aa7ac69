package leetcode

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Upstream response shapes. Nothing outside this package sees them; callers
// get UserData from Normalize.

type profilePayload struct {
	AllQuestionsCount []difficultyCount `json:"allQuestionsCount"`
	MatchedUser       *matchedUser      `json:"matchedUser"`
}

type difficultyCount struct {
	Difficulty  string `json:"difficulty"`
	Count       int    `json:"count"`
	Submissions int    `json:"submissions"`
}

type matchedUser struct {
	Username string `json:"username"`
	Profile  *struct {
		RealName   string `json:"realName"`
		UserAvatar string `json:"userAvatar"`
		Ranking    *int   `json:"ranking"`
	} `json:"profile"`
	SubmitStats *struct {
		AcSubmissionNum    []difficultyCount `json:"acSubmissionNum"`
		TotalSubmissionNum []difficultyCount `json:"totalSubmissionNum"`
	} `json:"submitStats"`
	SubmissionCalendar *string `json:"submissionCalendar"`
}

type recentSubmissionsPayload struct {
	RecentSubmissionList []struct {
		ID            flexString `json:"id"`
		Title         string     `json:"title"`
		TitleSlug     string     `json:"titleSlug"`
		Timestamp     flexString `json:"timestamp"`
		Lang          string     `json:"lang"`
		Runtime       string     `json:"runtime"`
		StatusDisplay string     `json:"statusDisplay"`
	} `json:"recentSubmissionList"`
}

type dailyPayload struct {
	ActiveDailyCodingChallengeQuestion *struct {
		Date     string `json:"date"`
		Link     string `json:"link"`
		Question struct {
			QuestionFrontendID string  `json:"questionFrontendId"`
			Title              string  `json:"title"`
			TitleSlug          string  `json:"titleSlug"`
			Difficulty         string  `json:"difficulty"`
			AcRate             float64 `json:"acRate"`
		} `json:"question"`
	} `json:"activeDailyCodingChallengeQuestion"`
}

type userStatusPayload struct {
	UserStatus *struct {
		IsSignedIn bool   `json:"isSignedIn"`
		Username   string `json:"username"`
	} `json:"userStatus"`
}

// flexString accepts a JSON string or number. The upstream sends ids and
// timestamps as strings but has not always done so.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) Int64() (int64, error) {
	return strconv.ParseInt(string(f), 10, 64)
}
