package link

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

var videoIDRegex = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// ParseYoutube extracts the 11 character video id from a youtube link.
func ParseYoutube(link string) (string, error) {
	parsed, err := parseURL(link)
	if err != nil {
		return "", err
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	host = strings.TrimPrefix(host, "music.")

	var id string
	switch host {
	case "youtu.be":
		// https://youtu.be/dQw4w9WgXcQ?t=42
		id = firstSegment(parsed.EscapedPath())
	case "youtube.com", "youtube-nocookie.com":
		id, err = parseYoutubePath(parsed)
		if err != nil {
			return "", err
		}
	default:
		return "", errors.Wrapf(model.ErrInvalidInput, "unsupported link host %q", parsed.Host)
	}

	if !videoIDRegex.MatchString(id) {
		return "", errors.Wrapf(model.ErrInvalidInput, "no video id in link %q", link)
	}

	return id, nil
}

func parseURL(link string) (*url.URL, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "empty link")
	}

	if !strings.HasPrefix(link, "http") {
		link = "https://" + link
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return nil, errors.Wrapf(model.ErrInvalidInput, "failed to parse url %q: %v", link, err)
	}

	return parsed, nil
}

func parseYoutubePath(parsed *url.URL) (string, error) {
	path := parsed.EscapedPath()

	// https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLMpEfaKcGjpWEgNtdnsvLX6LzQL0UC0EM
	if strings.HasPrefix(path, "/watch") {
		return parsed.Query().Get("v"), nil
	}

	// - https://www.youtube.com/shorts/dQw4w9WgXcQ
	// - https://www.youtube.com/embed/dQw4w9WgXcQ
	// - https://www.youtube.com/live/dQw4w9WgXcQ
	// - https://www.youtube.com/v/dQw4w9WgXcQ
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/", "/v/"} {
		if strings.HasPrefix(path, prefix) {
			return firstSegment(strings.TrimPrefix(path, prefix[:len(prefix)-1])), nil
		}
	}

	return "", errors.Wrapf(model.ErrInvalidInput, "unsupported youtube link %q", parsed.String())
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		path = path[:idx]
	}
	return path
}
