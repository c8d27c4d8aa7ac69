package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"leetcode-dash/internal/api"
	"leetcode-dash/internal/leetcode"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
)

const barWidth = 30

func printResult(w io.Writer, res *api.Result, now time.Time) {
	ud := res.Data

	name := ud.Profile.Username
	if ud.Profile.DisplayName != "" {
		name = fmt.Sprintf("%s (%s)", ud.Profile.DisplayName, ud.Profile.Username)
	}
	bold.Fprintln(w, name)

	switch {
	case res.Mock:
		yellow.Fprintf(w, "sample data: LeetCode is unreachable (%s)\n", res.LastError)
	case res.Stale:
		yellow.Fprintf(w, "stale data from %s ago: %s\n", now.Sub(res.FetchedAt).Round(time.Minute), res.LastError)
	}
	fmt.Fprintln(w)

	p := ud.Progress
	fmt.Fprintf(w, "Solved      %d / %d\n", p.TotalSolved, p.TotalQuestions)
	fmt.Fprintf(w, "Acceptance  %.2f%%\n", p.AcceptanceRate)
	if p.Ranking > 0 {
		fmt.Fprintf(w, "Ranking     %d\n", p.Ranking)
	}
	fmt.Fprintln(w)

	printDifficulty(w, "Easy", green, p.PerDifficulty.Easy)
	printDifficulty(w, "Medium", yellow, p.PerDifficulty.Medium)
	printDifficulty(w, "Hard", red, p.PerDifficulty.Hard)
	fmt.Fprintln(w)

	a := ud.Activity
	fmt.Fprintf(w, "Streak      %d days (longest %d), %d active days\n", a.CurrentStreak, a.LongestStreak, a.ActiveDays)

	if len(ud.RecentSubmissions) == 0 {
		return
	}
	fmt.Fprintln(w)
	bold.Fprintln(w, "Recent submissions")
	for _, s := range ud.RecentSubmissions {
		verdict := red
		if s.Verdict == "Accepted" {
			verdict = green
		}
		fmt.Fprintf(w, "  %s  ", s.Time().Local().Format("2006-01-02 15:04"))
		verdict.Fprintf(w, "%-22s", s.Verdict)
		fmt.Fprintf(w, " %s [%s]\n", s.ProblemTitle, s.Language)
	}
}

func printDifficulty(w io.Writer, label string, c *color.Color, d leetcode.DifficultyProgress) {
	filled := int(d.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	c.Fprintf(w, "%-7s", label)
	fmt.Fprintf(w, " %s%s %4d / %-4d %6.2f%%\n",
		c.Sprint(strings.Repeat("█", filled)),
		strings.Repeat("░", barWidth-filled),
		d.Solved, d.Total, d.Percent)
}

func printDaily(w io.Writer, d *leetcode.DailyChallenge) {
	c := green
	switch d.Difficulty {
	case "Medium":
		c = yellow
	case "Hard":
		c = red
	}
	bold.Fprintf(w, "%s. %s", d.QuestionID, d.Title)
	fmt.Fprint(w, "  ")
	c.Fprintln(w, d.Difficulty)
	fmt.Fprintf(w, "Date        %s\n", d.Date)
	fmt.Fprintf(w, "Acceptance  %.2f%%\n", d.AcRate)
	cyan.Fprintln(w, d.Link)
}
