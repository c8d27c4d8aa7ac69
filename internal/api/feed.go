package api

import (
	"fmt"
	"time"

	"leetcode-dash/internal/leetcode"
	"leetcode-dash/internal/rss"
)

// SubmissionsFeed turns a user's recent submissions into an RSS feed.
func SubmissionsFeed(ud *leetcode.UserData, fetchedAt time.Time) rss.Feed {
	items := make([]rss.Item, 0, len(ud.RecentSubmissions))
	for _, s := range ud.RecentSubmissions {
		items = append(items, rss.Item{
			Title:      fmt.Sprintf("%s: %s", s.Verdict, s.ProblemTitle),
			Link:       s.Link(),
			GUID:       fmt.Sprintf("%s:%s", ud.Profile.Username, s.ID),
			PubDate:    s.Time(),
			Summary:    fmt.Sprintf("%s in %s (runtime %s)", s.Verdict, s.Language, s.Runtime),
			Categories: []string{s.Language},
		})
	}

	return rss.Feed{
		Title:       fmt.Sprintf("LeetCode submissions: %s", ud.Profile.Username),
		Link:        fmt.Sprintf("https://leetcode.com/u/%s/", ud.Profile.Username),
		Description: fmt.Sprintf("Recent submissions of %s. Solved %d of %d.", ud.Profile.Username, ud.Progress.TotalSolved, ud.Progress.TotalQuestions),
		Updated:     fetchedAt,
		Items:       items,
	}
}
