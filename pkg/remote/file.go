package remote

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

const defaultChunkSize = 64 * 1024

// File is a read only io.ReadSeeker over an HTTP resource. Only GET requests are
// issued, since presigned links are signed for a single method. Size comes from the
// Content-Range of the first ranged response and reads are served with Range requests,
// so parsers only pull the bytes they touch.
type File struct {
	ctx         context.Context
	client      *http.Client
	url         string
	size        int64
	contentType string
	offset      int64
	chunkSize   int

	buf      []byte
	bufStart int64
}

// Open fetches the first chunk of the resource to learn its size.
func Open(ctx context.Context, client *http.Client, url string) (*File, error) {
	return open(ctx, client, url, defaultChunkSize)
}

func open(ctx context.Context, client *http.Client, url string, chunkSize int) (*File, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create range request")
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=0-%d", chunkSize-1))

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(model.ErrUpstream, "range request failed: %v", err)
	}
	defer resp.Body.Close()

	var size int64
	switch resp.StatusCode {
	case http.StatusPartialContent:
		size, err = totalSize(resp.Header.Get("Content-Range"))
		if err != nil {
			return nil, err
		}
	case http.StatusOK:
		if resp.ContentLength < 0 {
			return nil, errors.Wrap(model.ErrUpstream, "couldn't determine size, no Content-Length")
		}
		size = resp.ContentLength
	case http.StatusRequestedRangeNotSatisfiable:
		// A range starting at 0 is unsatisfiable only for an empty object
		size = 0
	default:
		return nil, errors.Wrapf(model.ErrUpstream, "couldn't determine size, GET returned %d", resp.StatusCode)
	}

	f := &File{
		ctx:         ctx,
		client:      client,
		url:         url,
		size:        size,
		contentType: resp.Header.Get("Content-Type"),
		chunkSize:   chunkSize,
	}

	if size == 0 {
		return f, nil
	}

	want := int64(chunkSize)
	if want > size {
		want = size
	}

	buf := make([]byte, want)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, errors.Wrapf(model.ErrUpstream, "failed to read first chunk: %v", err)
	}

	f.buf = buf[:n]
	return f, nil
}

// totalSize parses the complete length out of a "bytes 0-99/1000" Content-Range.
func totalSize(contentRange string) (int64, error) {
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, errors.Wrapf(model.ErrUpstream, "couldn't determine size, invalid Content-Range %q", contentRange)
	}

	size, err := strconv.ParseInt(strings.TrimSpace(contentRange[idx+1:]), 10, 64)
	if err != nil || size < 0 {
		return 0, errors.Wrapf(model.ErrUpstream, "couldn't determine size, invalid Content-Range %q", contentRange)
	}

	return size, nil
}

// Size returns the length of the remote resource in bytes.
func (f *File) Size() int64 {
	return f.size
}

// ContentType returns the Content-Type reported by the server.
func (f *File) ContentType() string {
	return f.contentType
}

func (f *File) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if f.offset >= f.size {
		return 0, io.EOF
	}

	if !f.buffered(f.offset) {
		if err := f.fill(f.offset, len(p)); err != nil {
			return 0, err
		}
	}

	n := copy(p, f.buf[f.offset-f.bufStart:])
	f.offset += int64(n)
	return n, nil
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.offset + offset
	case io.SeekEnd:
		abs = f.size + offset
	default:
		return 0, errors.New("invalid whence")
	}

	if abs < 0 {
		return 0, errors.New("negative position")
	}

	f.offset = abs
	return abs, nil
}

func (f *File) buffered(offset int64) bool {
	return offset >= f.bufStart && offset < f.bufStart+int64(len(f.buf))
}

// fill loads at least want bytes (and no less than a chunk) starting at offset.
func (f *File) fill(offset int64, want int) error {
	if want < f.chunkSize {
		want = f.chunkSize
	}

	end := offset + int64(want) - 1
	if end >= f.size {
		end = f.size - 1
	}

	req, err := http.NewRequestWithContext(f.ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create range request")
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, end))

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.Wrapf(model.ErrUpstream, "range request failed: %v", err)
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	switch resp.StatusCode {
	case http.StatusPartialContent:
	case http.StatusOK:
		// Server ignored the range, skip to the requested offset
		if _, err := io.CopyN(ioutil.Discard, resp.Body, offset); err != nil {
			return errors.Wrapf(model.ErrUpstream, "failed to skip to offset %d: %v", offset, err)
		}
	default:
		return errors.Wrapf(model.ErrUpstream, "range request returned %d", resp.StatusCode)
	}

	buf := make([]byte, end-offset+1)
	n, err := io.ReadFull(body, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return errors.Wrapf(model.ErrUpstream, "failed to read range: %v", err)
	}
	if n == 0 {
		return io.ErrUnexpectedEOF
	}

	f.buf = buf[:n]
	f.bufStart = offset
	return nil
}
