package server

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	itunes "github.com/eduncan911/podcast"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

var cfg = Config{}

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, *Mockfiles, *Mockfeeds) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	files := NewMockfiles(ctrl)
	feeds := NewMockfeeds(ctrl)

	srv := httptest.NewServer(NewHandler(cfg, files, feeds))
	t.Cleanup(srv.Close)

	return srv, files, feeds
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, cfg)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK", readBody(t, resp))
}

func TestListFiles(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	title := "Never Gonna Give You Up"
	files.EXPECT().ListFiles(gomock.Any(), []string{"dQw4w9WgXcQ", "book0000001"}).Return([]*model.Listing{
		{ID: "dQw4w9WgXcQ", Title: title, Duration: 212, Type: model.TypeYoutube},
	}, nil)

	resp, err := http.Get(srv.URL + "/files?id=dQw4w9WgXcQ&id=book0000001")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.JSONEq(t, `{
		"files": [{"id": "dQw4w9WgXcQ", "title": "Never Gonna Give You Up", "description": "", "thumbnail": "", "duration": 212, "type": "youtube"}],
		"next": null
	}`, readBody(t, resp))
}

func TestListFilesEmpty(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().ListFiles(gomock.Any(), gomock.Any()).Return([]*model.Listing{}, nil)

	resp, err := http.Get(srv.URL + "/files")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"files": [], "next": null}`, readBody(t, resp))
}

func TestAddYoutube(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().RegisterYoutube(gomock.Any(), "https://youtu.be/dQw4w9WgXcQ").Return(&model.Accepted{
		ID:     "dQw4w9WgXcQ",
		Type:   model.TypeYoutube,
		TaskID: "task1",
	}, nil)

	resp, err := http.Post(srv.URL+"/files/youtube/add", "application/json", strings.NewReader(`{"url": "https://youtu.be/dQw4w9WgXcQ"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.JSONEq(t, `{"id": "dQw4w9WgXcQ", "type": "youtube", "task_id": "task1"}`, readBody(t, resp))
}

func TestAddYoutubeErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "invalid link", err: errors.Wrap(model.ErrInvalidInput, "bad link"), code: http.StatusBadRequest},
		{name: "duplicate", err: errors.Wrap(model.ErrConflict, "exists"), code: http.StatusConflict},
		{name: "storage", err: errors.Wrap(model.ErrUpstream, "boom"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, files, _ := newTestServer(t, cfg)
			files.EXPECT().RegisterYoutube(gomock.Any(), "https://example.com").Return(nil, tt.err)

			resp, err := http.Post(srv.URL+"/files/youtube/add", "application/json", strings.NewReader(`{"url": "https://example.com"}`))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Contains(t, readBody(t, resp), "error")
		})
	}
}

func TestAddYoutubeMalformedBody(t *testing.T) {
	srv, _, _ := newTestServer(t, cfg)

	resp, err := http.Post(srv.URL+"/files/youtube/add", "application/json", strings.NewReader(`{"url": `))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBookUpload(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	gomock.InOrder(
		files.EXPECT().StartBookUpload(gomock.Any()).Return(&model.Accepted{ID: "book0000001"}, nil),
		files.EXPECT().UploadBookChapter(gomock.Any(), "book0000001", "01.mp3").Return(&model.ChapterUpload{
			ID:  "chap0000001",
			URL: "https://storage.local/book0000001/chap0000001",
		}, nil),
		files.EXPECT().CompleteBookUpload(gomock.Any(), "book0000001").Return(&model.Accepted{
			ID:     "book0000001",
			Type:   model.TypeAudiobook,
			TaskID: "task2",
		}, nil),
	)

	resp, err := http.Post(srv.URL+"/files/book/add", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, `{"id": "book0000001"}`, readBody(t, resp))

	resp, err = http.Post(srv.URL+"/files/book/book0000001/add_chapter", "application/json", strings.NewReader(`{"filename": "01.mp3"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, `{"id": "chap0000001", "url": "https://storage.local/book0000001/chap0000001"}`, readBody(t, resp))

	resp, err = http.Post(srv.URL+"/files/book/book0000001/complete", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.JSONEq(t, `{"id": "book0000001", "type": "audiobook", "task_id": "task2"}`, readBody(t, resp))
}

func TestAddChapterToMissingBook(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().UploadBookChapter(gomock.Any(), "book0000001", "01.mp3").Return(nil, errors.Wrap(model.ErrNotFound, "no book"))

	resp, err := http.Post(srv.URL+"/files/book/book0000001/add_chapter", "application/json", strings.NewReader(`{"filename": "01.mp3"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompleteEmptyBook(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().CompleteBookUpload(gomock.Any(), "book0000001").Return(nil, errors.Wrap(model.ErrInvalidState, "no chapters"))

	resp, err := http.Post(srv.URL+"/files/book/book0000001/complete", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteFile(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().DeleteEntry(gomock.Any(), "dQw4w9WgXcQ").Return(nil)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/files/dQw4w9WgXcQ", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"id": "dQw4w9WgXcQ"}`, readBody(t, resp))
}

func TestYoutubeFeed(t *testing.T) {
	srv, _, feeds := newTestServer(t, cfg)

	podcast := itunes.New("Stethoscope", "https://example.com", "", nil, nil)
	feeds.EXPECT().Youtube(gomock.Any()).Return(&podcast, nil)

	resp, err := http.Get(srv.URL + "/youtube/feed")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, feedContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, readBody(t, resp), "<title>Stethoscope</title>")
}

func TestBookFeedNotFound(t *testing.T) {
	srv, _, feeds := newTestServer(t, cfg)

	feeds.EXPECT().Book(gomock.Any(), "book0000001").Return(nil, errors.Wrap(model.ErrNotFound, "no book"))

	resp, err := http.Get(srv.URL + "/book/book0000001/feed")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOPML(t *testing.T) {
	srv, _, feeds := newTestServer(t, cfg)

	feeds.EXPECT().OPML(gomock.Any()).Return("<opml></opml>", nil)

	resp, err := http.Get(srv.URL + "/opml.xml")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<opml></opml>", readBody(t, resp))
}

func TestMediaRedirect(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	gomock.InOrder(
		files.EXPECT().MediaURL(gomock.Any(), "dQw4w9WgXcQ").Return("https://storage.local/dQw4w9WgXcQ", nil),
		files.EXPECT().MediaURL(gomock.Any(), "book0000001/chap0000001").Return("https://storage.local/book0000001/chap0000001", nil),
	)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(srv.URL + "/media/dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Equal(t, http.StatusPermanentRedirect, resp.StatusCode)
	assert.Equal(t, "https://storage.local/dQw4w9WgXcQ", resp.Header.Get("Location"))

	resp, err = client.Get(srv.URL + "/media/book0000001%2Fchap0000001")
	require.NoError(t, err)
	require.Equal(t, http.StatusPermanentRedirect, resp.StatusCode)
	assert.Equal(t, "https://storage.local/book0000001/chap0000001", resp.Header.Get("Location"))
}

func TestMediaInvalidKey(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().MediaURL(gomock.Any(), "a/b/c").Return("", errors.Wrap(model.ErrInvalidInput, "invalid media key"))

	resp, err := http.Get(srv.URL + "/media/a/b/c")
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTasks(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	files.EXPECT().Tasks(gomock.Any()).Return(nil, nil)
	files.EXPECT().Queued().Return(2)
	files.EXPECT().Task(gomock.Any(), "task1").Return(&model.Task{
		ID:      "task1",
		Kind:    model.TaskYoutubeFetch,
		EntryID: "dQw4w9WgXcQ",
		Status:  model.TaskFailed,
		Error:   "upstream failure",
	}, nil)
	files.EXPECT().Task(gomock.Any(), "missing").Return(nil, errors.Wrap(model.ErrNotFound, "no task"))

	resp, err := http.Get(srv.URL + "/tasks")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"tasks": [], "queued": 2}`, readBody(t, resp))

	resp, err = http.Get(srv.URL + "/tasks/task1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `"status":"failed"`)
	assert.Contains(t, body, `"kind":"youtube_fetch"`)

	resp, err = http.Get(srv.URL + "/tasks/missing")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteTask(t *testing.T) {
	srv, files, _ := newTestServer(t, cfg)

	gomock.InOrder(
		files.EXPECT().DeleteTask(gomock.Any(), "task1").Return(nil),
		files.EXPECT().DeleteTask(gomock.Any(), "task2").Return(errors.Wrap(model.ErrInvalidState, "still pending")),
		files.EXPECT().DeleteTask(gomock.Any(), "missing").Return(errors.Wrap(model.ErrNotFound, "no task")),
	)

	tests := []struct {
		taskID string
		code   int
	}{
		{"task1", http.StatusOK},
		{"task2", http.StatusBadRequest},
		{"missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/tasks/"+tt.taskID, nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body := readBody(t, resp)
		assert.Equal(t, tt.code, resp.StatusCode, tt.taskID)

		if tt.code == http.StatusOK {
			assert.JSONEq(t, `{"id": "task1"}`, body)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	srv, files, _ := newTestServer(t, Config{
		Accounts:  map[string]string{"admin": "secret"},
		Protected: []string{"/files"},
	})

	files.EXPECT().ListFiles(gomock.Any(), gomock.Any()).Return([]*model.Listing{}, nil)

	resp, err := http.Get(srv.URL + "/files")
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/files", nil)
	require.NoError(t, err)
	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Unprotected paths stay open
	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t, Config{
		UIOrigin:  "https://ui.example.com",
		Accounts:  map[string]string{"admin": "secret"},
		Protected: []string{"/files"},
	})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/files/youtube/add", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://ui.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://ui.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, status(errors.Wrap(model.ErrInvalidInput, "x")))
	assert.Equal(t, http.StatusBadRequest, status(errors.Wrap(model.ErrNotFound, "x")))
	assert.Equal(t, http.StatusBadRequest, status(errors.Wrap(model.ErrInvalidState, "x")))
	assert.Equal(t, http.StatusConflict, status(errors.Wrap(model.ErrConflict, "x")))
	assert.Equal(t, http.StatusInternalServerError, status(errors.New("x")))
}

func TestNewServerAddress(t *testing.T) {
	srv := New(Config{BindAddress: "*"}, nil, nil)
	assert.Equal(t, ":8080", srv.Addr)

	srv = New(Config{BindAddress: "127.0.0.1", Port: 9090}, nil, nil)
	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
}

func readBody(t *testing.T, resp *http.Response) string {
	buf, err := ioutil.ReadAll(resp.Body)
	defer resp.Body.Close()

	require.NoError(t, err)

	return string(buf)
}
