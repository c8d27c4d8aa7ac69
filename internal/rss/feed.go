// Package rss renders RSS 2.0 documents.
package rss

import "time"

type Feed struct {
	Title       string
	Link        string
	Description string
	// Updated becomes lastBuildDate when set.
	Updated time.Time
	Items   []Item
}

// Item is one entry. GUID must be stable across renders so readers do not
// show an entry twice.
type Item struct {
	Title      string
	Link       string
	GUID       string
	PubDate    time.Time
	Summary    string
	Categories []string
}
