package feed

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	itunes "github.com/eduncan911/podcast"
	"github.com/pkg/errors"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const (
	generator       = "Stethoscope"
	defaultTitle    = "Stethoscope"
	defaultCategory = "Arts"
)

// Builder renders the catalog as podcast feeds. Enclosures point at the media
// redirect endpoint, so feeds never embed expiring object store links.
type Builder struct {
	config   Config
	hostname string
	catalog  Catalog
	now      func() time.Time
}

func NewBuilder(config Config, hostname string, catalog Catalog) *Builder {
	return &Builder{
		config:   config,
		hostname: strings.TrimSuffix(hostname, "/"),
		catalog:  catalog,
		now:      time.Now,
	}
}

// Youtube renders all standalone tracks, oldest first.
func (b *Builder) Youtube(ctx context.Context) (*itunes.Podcast, error) {
	entries, err := b.catalog.ListStandalone(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query tracks")
	}

	title := b.config.Title
	if title == "" {
		title = defaultTitle
	}

	p := b.podcast(title, b.config.Description, b.config.CoverArt, b.feedURL("/youtube/feed"))

	err = b.addEpisodes(&p, entries, func(_ int, entry *model.Entry) time.Time {
		return entry.Published.UTC()
	})

	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Book renders the chapters of a complete book sorted by filename. Publish dates
// are shifted by an hour per chapter so players keep the chapter order.
func (b *Builder) Book(ctx context.Context, bookID string) (*itunes.Podcast, error) {
	book, err := b.catalog.GetEntry(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.IsChapter() || book.Pending() {
		return nil, errors.Wrapf(model.ErrNotFound, "no complete book %q", bookID)
	}

	chapters, err := b.catalog.ListChapters(ctx, bookID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query chapters of %q", bookID)
	}

	title := model.StringValue(book.Title)
	if title == "" {
		title = book.Filename
	}

	p := b.podcast(title, model.StringValue(book.Description), book.ThumbnailURL, b.feedURL("/book/"+bookID+"/feed"))

	err = b.addEpisodes(&p, chapters, func(idx int, entry *model.Entry) time.Time {
		return entry.Published.UTC().Add(time.Duration(idx) * time.Hour)
	})

	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (b *Builder) podcast(title, description, coverArt, link string) itunes.Podcast {
	var (
		now    = b.now().UTC()
		author = b.config.Author
	)

	if description == "" {
		description = title
	}

	if author == "" {
		author = title
	}

	if b.config.Link != "" {
		link = b.config.Link
	}

	p := itunes.New(title, link, description, &now, &now)
	p.Generator = generator
	p.AddSubTitle(title)
	p.IAuthor = author
	p.AddSummary(description)

	if b.config.OwnerName != "" && b.config.OwnerEmail != "" {
		p.IOwner = &itunes.Author{
			Name:  b.config.OwnerName,
			Email: b.config.OwnerEmail,
		}
	}

	if coverArt != "" {
		p.AddImage(coverArt)
	}

	if b.config.Category != "" {
		p.AddCategory(b.config.Category, b.config.Subcategories)
	} else {
		p.AddCategory(defaultCategory, b.config.Subcategories)
	}

	if b.config.Explicit {
		p.IExplicit = "yes"
	} else {
		p.IExplicit = "no"
	}

	if b.config.Language != "" {
		p.Language = b.config.Language
	}

	return p
}

// addEpisodes is shared by both feed shapes, they differ only in how publish dates are derived.
func (b *Builder) addEpisodes(p *itunes.Podcast, entries []*model.Entry, pubDate func(idx int, entry *model.Entry) time.Time) error {
	for idx, entry := range entries {
		title := model.StringValue(entry.Title)
		if title == "" {
			title = entry.Filename
		}

		description := model.StringValue(entry.Description)

		item := itunes.Item{
			GUID:        entry.ID,
			Title:       title,
			Description: description,
			ISubtitle:   title,
			// Some app prefer 1-based order
			IOrder: strconv.Itoa(idx + 1),
		}

		published := pubDate(idx, entry)
		item.AddPubDate(&published)
		item.AddSummary(description)
		item.AddDuration(entry.Duration)

		if entry.ThumbnailURL != "" {
			item.AddImage(entry.ThumbnailURL)
		}

		item.AddEnclosure(b.MediaURL(entry), EnclosureType(entry.AudioType), entry.AudioSize)

		// p.AddItem requires description to be not empty, use workaround
		if item.Description == "" {
			item.Description = " "
		}

		if b.config.Explicit {
			item.IExplicit = "yes"
		} else {
			item.IExplicit = "no"
		}

		if _, err := p.AddItem(item); err != nil {
			return errors.Wrapf(err, "failed to add item to podcast (id %q)", entry.ID)
		}
	}

	return nil
}

// MediaURL is the redirect link of an entry. Chapter keys are escaped into a single path segment.
func (b *Builder) MediaURL(entry *model.Entry) string {
	return b.hostname + "/media/" + url.PathEscape(entry.Key())
}

func (b *Builder) feedURL(path string) string {
	return b.hostname + path
}

// EnclosureType maps a MIME type onto the closest enclosure type.
func EnclosureType(mimeType string) itunes.EnclosureType {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])) {
	case "audio/mp4", "audio/m4a", "audio/x-m4a", "audio/aac":
		return itunes.M4A
	case "video/mp4":
		return itunes.MP4
	case "video/x-m4v":
		return itunes.M4V
	default:
		return itunes.MP3
	}
}
