package rss

import (
	"encoding/xml"
	"time"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel channelXML `xml:"channel"`
}

type channelXML struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []itemXML `xml:"item"`
}

type itemXML struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        guidXML  `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
	Description string   `xml:"description,omitempty"`
	Categories  []string `xml:"category"`
}

type guidXML struct {
	IsPermaLink string `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

func Render(feed Feed) ([]byte, error) {
	items := make([]itemXML, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, itemXML{
			Title:       it.Title,
			Link:        it.Link,
			GUID:        guidXML{IsPermaLink: "false", Value: it.GUID},
			PubDate:     it.PubDate.UTC().Format(time.RFC1123Z),
			Description: it.Summary,
			Categories:  it.Categories,
		})
	}

	var lastBuild string
	if !feed.Updated.IsZero() {
		lastBuild = feed.Updated.UTC().Format(time.RFC1123Z)
	}

	out := rssXML{
		Version: "2.0",
		Channel: channelXML{
			Title:         feed.Title,
			Link:          feed.Link,
			Description:   feed.Description,
			LastBuildDate: lastBuild,
			Items:         items,
		},
	}
	b, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), b...), nil
}
