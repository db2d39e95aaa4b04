package httpapi

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"endorsement/internal/batch"
	"endorsement/internal/encoder"
	"endorsement/internal/events"
	"endorsement/internal/http/handlers"
	"endorsement/internal/infra"
	"endorsement/internal/preferences"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 0, 0, 0, 1}

type stubGenerator struct {
	mu      sync.Mutex
	calls   int
	fail    map[string]bool
	release chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, model, product encoder.SourceImage) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.release != nil {
		<-g.release
	}
	for marker := range g.fail {
		if strings.Contains(prompt, marker) {
			return "", errors.New("upstream refused")
		}
	}
	return encoder.DataURI("image/png", base64.StdEncoding.EncodeToString(pngBytes)), nil
}

func (g *stubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type snapshotBody struct {
	ID          string `json:"id"`
	Done        bool   `json:"done"`
	HasFailures bool   `json:"has_failures"`
	Message     string `json:"message"`
	Tasks       []struct {
		Index int     `json:"index"`
		State string  `json:"state"`
		Src   *string `json:"src"`
	} `json:"tasks"`
}

func newTestServer(t *testing.T, gen batch.Generator, rateLimit int) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := events.NewHub()
	go hub.Run(ctx)

	app := &handlers.App{
		Config:       &infra.Config{MaxUploadBytes: 1 << 20},
		Logger:       zerolog.Nop(),
		Orchestrator: batch.NewOrchestrator(gen, batch.Options{}),
		History:      batch.NewHistory(4),
		Events:       hub,
		Preferences:  preferences.NewMemoryStore(),
	}
	srv := httptest.NewServer(NewRouter(app, Options{
		Logger:          zerolog.Nop(),
		DefaultLocale:   "id",
		RateLimitPerMin: rateLimit,
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

func multipartRequest(t *testing.T, url string, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url+"/v1/batches", body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createBatch(t *testing.T, srv *httptest.Server, locale string) snapshotBody {
	t.Helper()
	req := multipartRequest(t, srv.URL, map[string][]byte{"model": pngBytes, "product": pngBytes}, map[string]string{"style": "urban street", "hd": "true"})
	if locale != "" {
		req.Header.Set("Accept-Language", locale)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /v1/batches: %v", err)
	}
	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, body)
	}
	var snap snapshotBody
	decode(t, resp, &snap)
	return snap
}

func waitDone(t *testing.T, srv *httptest.Server, id, locale string) snapshotBody {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/batches/"+id, nil)
		if locale != "" {
			req.Header.Set("Accept-Language", locale)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET batch: %v", err)
		}
		var snap snapshotBody
		decode(t, resp, &snap)
		if snap.Done {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("batch %s did not finish", id)
	return snapshotBody{}
}

func TestCreateBatchRunsToCompletion(t *testing.T) {
	gen := &stubGenerator{}
	srv := newTestServer(t, gen, 0)

	initial := createBatch(t, srv, "")
	if initial.ID == "" || initial.Done || len(initial.Tasks) != batch.DefaultSize {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}
	for i, task := range initial.Tasks {
		if task.Index != i || task.State != "pending" || task.Src != nil {
			t.Fatalf("task %d not pending: %+v", i, task)
		}
	}

	final := waitDone(t, srv, initial.ID, "")
	if final.HasFailures || final.Message != "" {
		t.Fatalf("expected clean batch, got %+v", final)
	}
	for _, task := range final.Tasks {
		if task.State != "succeeded" || task.Src == nil || !strings.HasPrefix(*task.Src, "data:image/png;base64,") {
			t.Fatalf("task %d not succeeded: %+v", task.Index, task)
		}
	}
	if gen.Calls() != batch.DefaultSize {
		t.Fatalf("expected %d generator calls, got %d", batch.DefaultSize, gen.Calls())
	}

	resp, err := http.Get(srv.URL + "/v1/batches/current")
	if err != nil {
		t.Fatalf("GET current: %v", err)
	}
	var current snapshotBody
	decode(t, resp, &current)
	if current.ID != initial.ID || !current.Done {
		t.Fatalf("current batch mismatch: %+v", current)
	}

	resp, err = http.Get(srv.URL + "/v1/batches/" + initial.ID + "/images/0")
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	img, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" || !bytes.Equal(img, pngBytes) {
		t.Fatalf("unexpected image response %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(srv.URL + "/v1/batches/" + initial.ID + "/archive")
	if err != nil {
		t.Fatalf("GET archive: %v", err)
	}
	archive, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != batch.DefaultSize || zr.File[0].Name != "endorsement-01.png" {
		t.Fatalf("unexpected archive entries: %d", len(zr.File))
	}
}

func TestCreateBatchPartialFailureIsLocalised(t *testing.T) {
	gen := &stubGenerator{fail: map[string]bool{"Style variation 3.": true}}
	srv := newTestServer(t, gen, 0)

	initial := createBatch(t, srv, "en-US,en;q=0.9")
	final := waitDone(t, srv, initial.ID, "en-US")

	if !final.HasFailures {
		t.Fatal("expected has_failures")
	}
	if final.Message != "Some images failed to generate. Please try again." {
		t.Fatalf("unexpected message %q", final.Message)
	}
	for _, task := range final.Tasks {
		want := "succeeded"
		if task.Index == 2 {
			want = "failed"
		}
		if task.State != want {
			t.Fatalf("task %d = %s, want %s", task.Index, task.State, want)
		}
	}

	resp, err := http.Get(srv.URL + "/v1/batches/" + initial.ID + "/images/2")
	if err != nil {
		t.Fatalf("GET image: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("failed task image should be 404, got %d", resp.StatusCode)
	}

	final = waitDone(t, srv, initial.ID, "")
	if final.Message != "Beberapa gambar gagal dibuat. Silakan coba lagi." {
		t.Fatalf("default locale message = %q", final.Message)
	}
}

func TestCreateBatchValidation(t *testing.T) {
	tests := []struct {
		name  string
		files map[string][]byte
		want  string
	}{
		{name: "missing product", files: map[string][]byte{"model": pngBytes}, want: "validation"},
		{name: "missing both", files: map[string][]byte{}, want: "validation"},
		{name: "empty model", files: map[string][]byte{"model": {}, "product": pngBytes}, want: "validation"},
		{name: "not an image", files: map[string][]byte{"model": []byte("plain text"), "product": pngBytes}, want: "invalid_image"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gen := &stubGenerator{}
			srv := newTestServer(t, gen, 0)

			resp, err := http.DefaultClient.Do(multipartRequest(t, srv.URL, tc.files, nil))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			var body struct {
				Error   string `json:"error"`
				Message string `json:"message"`
			}
			decode(t, resp, &body)
			if body.Error != tc.want {
				t.Fatalf("error = %q, want %q", body.Error, tc.want)
			}
			if tc.want == "validation" && body.Message != "Harap unggah foto model dan foto produk terlebih dahulu." {
				t.Fatalf("unexpected message %q", body.Message)
			}
			if gen.Calls() != 0 {
				t.Fatalf("generator must not be called, got %d", gen.Calls())
			}

			resp, err = http.Get(srv.URL + "/v1/batches/current")
			if err != nil {
				t.Fatalf("GET current: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusNotFound {
				t.Fatalf("no batch should exist, got %d", resp.StatusCode)
			}
		})
	}
}

func TestBatchEventsStreamUntilDone(t *testing.T) {
	gen := &stubGenerator{release: make(chan struct{})}
	srv := newTestServer(t, gen, 0)

	initial := createBatch(t, srv, "")
	resp, err := http.Get(srv.URL + "/v1/batches/" + initial.ID + "/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	close(gen.release)

	var snaps []snapshotBody
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var snap snapshotBody
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		snaps = append(snaps, snap)
	}
	if len(snaps) == 0 {
		t.Fatal("no events received")
	}
	last := snaps[len(snaps)-1]
	if !last.Done || last.HasFailures {
		t.Fatalf("stream should end with the final snapshot, got %+v", last)
	}
	settled := -1
	for _, s := range snaps {
		n := 0
		for _, task := range s.Tasks {
			if task.State != "pending" {
				n++
			}
		}
		if n < settled {
			t.Fatalf("events went backwards: %d after %d", n, settled)
		}
		settled = n
	}
}

func TestUnknownBatch(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, 0)
	for _, path := range []string{"/v1/batches/nope", "/v1/batches/nope/events", "/v1/batches/nope/images/0", "/v1/batches/nope/archive", "/v1/batches/current"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestCreateBatchRateLimited(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, 1)

	createBatch(t, srv, "")
	req := multipartRequest(t, srv.URL, map[string][]byte{"model": pngBytes, "product": pngBytes}, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/v1/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reads must not be limited, got %d", resp.StatusCode)
	}
}

func TestThemePreference(t *testing.T) {
	srv := newTestServer(t, &stubGenerator{}, 0)

	do := func(method, path, body string) (int, string) {
		t.Helper()
		req, _ := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		var out struct {
			Theme string `json:"theme"`
		}
		decode(t, resp, &out)
		return resp.StatusCode, out.Theme
	}

	if code, theme := do(http.MethodGet, "/v1/preferences/theme", ""); code != http.StatusOK || theme != "light" {
		t.Fatalf("default theme = %d %q", code, theme)
	}
	if code, theme := do(http.MethodPut, "/v1/preferences/theme", `{"theme":"dark"}`); code != http.StatusOK || theme != "dark" {
		t.Fatalf("put dark = %d %q", code, theme)
	}
	if code, _ := do(http.MethodPut, "/v1/preferences/theme", `{"theme":"neon"}`); code != http.StatusBadRequest {
		t.Fatalf("invalid theme should be 400, got %d", code)
	}
	if code, theme := do(http.MethodPost, "/v1/preferences/theme/toggle", ""); code != http.StatusOK || theme != "light" {
		t.Fatalf("toggle = %d %q", code, theme)
	}
}
