package rss

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	pub := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	b, err := Render(Feed{
		Title:       "LeetCode submissions: alice",
		Link:        "https://leetcode.com/u/alice/",
		Description: "Recent submissions",
		Items: []Item{{
			Title:   "Accepted: Two Sum",
			Link:    "https://leetcode.com/problems/two-sum/",
			GUID:    "alice:1",
			PubDate: pub,
			Summary: "Accepted in golang & more",
		}},
	})
	require.NoError(t, err)

	out := string(b)
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<rss version="2.0">`)
	assert.Contains(t, out, `<guid isPermaLink="false">alice:1</guid>`)
	assert.Contains(t, out, "<pubDate>Tue, 02 Jan 2024 02:04:05 +0000</pubDate>")
	assert.Contains(t, out, "golang &amp; more")

	var parsed rssXML
	require.NoError(t, xml.Unmarshal(b, &parsed))
	require.Len(t, parsed.Channel.Items, 1)
	assert.Equal(t, "Accepted: Two Sum", parsed.Channel.Items[0].Title)
}

func TestRender_Empty(t *testing.T) {
	b, err := Render(Feed{Title: "empty"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "<item>")
}

func TestRender_CategoriesAndBuildDate(t *testing.T) {
	b, err := Render(Feed{
		Title:   "f",
		Updated: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Items:   []Item{{Title: "x", GUID: "1", Categories: []string{"golang"}}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(b), "<lastBuildDate>Tue, 02 Jan 2024 00:00:00 +0000</lastBuildDate>")
	assert.Contains(t, string(b), "<category>golang</category>")
}
