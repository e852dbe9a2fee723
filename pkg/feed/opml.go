package feed

import (
	"context"
	"encoding/xml"

	"github.com/pkg/errors"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

type opml struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    head
	Body    body
}

type head struct {
	XMLName xml.Name `xml:"head"`
	Title   string   `xml:"title"`
}

type body struct {
	XMLName  xml.Name  `xml:"body"`
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text   string `xml:"text,attr"`
	Title  string `xml:"title,attr"`
	Type   string `xml:"type,attr"`
	XMLURL string `xml:"xmlUrl,attr"`
}

// OPML lists the youtube feed and the feed of every complete book.
func (b *Builder) OPML(ctx context.Context) (string, error) {
	roots, err := b.catalog.ListRoots(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to query books")
	}

	title := b.config.Title
	if title == "" {
		title = defaultTitle
	}

	ou := []outline{
		{Title: title, Text: title, Type: "rss", XMLURL: b.feedURL("/youtube/feed")},
	}

	for _, root := range roots {
		if root.Type != model.TypeAudiobook {
			continue
		}

		ou = append(ou, outline{
			Title:  root.Title,
			Text:   root.Title,
			Type:   "rss",
			XMLURL: b.feedURL("/book/" + root.ID + "/feed"),
		})
	}

	op := opml{Version: "1.0"}
	op.Head = head{Title: title + " feeds"}
	op.Body = body{Outlines: ou}

	out, err := xml.MarshalIndent(op, " ", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal OPML")
	}

	return xml.Header + string(out), nil
}
