package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/sizemap/pkg/entry"
	"github.com/matzehuels/sizemap/pkg/errors"
	"github.com/matzehuels/sizemap/pkg/pipeline"
	"github.com/matzehuels/sizemap/pkg/store"
)

const sampleReport = `{
  "name": "bin",
  "size": 1000,
  "packages": {
    "main": {
      "name": "main",
      "type": "main",
      "subPackages": {},
      "files": [{"file_path": "/src/app/main.go", "size": 400, "pcln_size": 24}],
      "symbols": [],
      "size": 600
    },
    "fmt": {
      "name": "fmt",
      "type": "std",
      "subPackages": {},
      "files": [{"file_path": "/go/src/fmt/print.go", "size": 300, "pcln_size": 18}],
      "symbols": [],
      "size": 300
    }
  },
  "sections": []
}`

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(cfg, store.NewMemoryStore(), pipeline.NewRunner(nil, nil, logger), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func upload(t *testing.T, ts *httptest.Server, body string) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/reports", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var out struct {
		ID     string `json:"id"`
		Viewer string `json:"viewer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("Location") != "/api/reports/"+out.ID {
		t.Errorf("Location = %q", resp.Header.Get("Location"))
	}
	return out.ID
}

func getJSON(t *testing.T, rawURL string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s status = %d, want %d (%s)", rawURL, resp.StatusCode, wantStatus, body)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
}

type apiError struct {
	Error struct {
		Code    errors.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func viewURL(ts *httptest.Server, id, path, click string) string {
	q := url.Values{}
	q.Set("path", path)
	q.Set("w", "800")
	q.Set("h", "600")
	if click != "" {
		q.Set("click", click)
	}
	return ts.URL + "/api/reports/" + id + "/view?" + q.Encode()
}

// nodeID returns the data-id of the node whose tooltip names name.
func nodeID(t *testing.T, svg, name string) string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(svg))
	if err != nil {
		t.Fatal(err)
	}
	var id string
	doc.Find("g.node").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.HasPrefix(s.ChildrenFiltered("title").Text(), name+"\n") {
			id, _ = s.Attr("data-id")
			return false
		}
		return true
	})
	if id == "" {
		t.Fatalf("no node named %q", name)
	}
	return id
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	var out map[string]string
	getJSON(t, ts.URL+"/healthz", http.StatusOK, &out)
	if out["status"] != "ok" {
		t.Errorf("healthz = %v", out)
	}
}

func TestUploadAndSummary(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a uuid", id)
	}

	var out struct {
		Name    string `json:"name"`
		Size    uint64 `json:"size"`
		Data    []byte `json:"data"`
		Summary struct {
			Packages int `json:"packages"`
			Files    int `json:"files"`
		} `json:"summary"`
	}
	getJSON(t, ts.URL+"/api/reports/"+id, http.StatusOK, &out)
	if out.Name != "bin" || out.Size != 1000 {
		t.Errorf("report = %s/%d, want bin/1000", out.Name, out.Size)
	}
	if out.Summary.Packages != 2 || out.Summary.Files != 2 {
		t.Errorf("summary = %+v", out.Summary)
	}
	if len(out.Data) != 0 {
		t.Error("summary response carries the raw report")
	}

	var list []struct {
		ID string `json:"id"`
	}
	getJSON(t, ts.URL+"/api/reports", http.StatusOK, &list)
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %+v", list)
	}
}

func TestUploadRejected(t *testing.T) {
	_, ts := newTestServer(t, Config{MaxUpload: 64})
	tests := []struct {
		name string
		body string
	}{
		{"invalid report", `{"size":1}`},
		{"too large", sampleReport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/reports", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			var e apiError
			_ = json.NewDecoder(resp.Body).Decode(&e)
			if e.Error.Code != errors.ErrCodeInvalidReport {
				t.Errorf("code = %q, want %q", e.Error.Code, errors.ErrCodeInvalidReport)
			}
		})
	}
}

func TestUnknownAndMalformedIDs(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	var e apiError
	getJSON(t, ts.URL+"/api/reports/"+uuid.NewString(), http.StatusNotFound, &e)
	if e.Error.Code != errors.ErrCodeReportNotFound {
		t.Errorf("code = %q, want %q", e.Error.Code, errors.ErrCodeReportNotFound)
	}
	getJSON(t, ts.URL+"/api/reports/not-a-uuid/view", http.StatusBadRequest, &e)
	if e.Error.Code != errors.ErrCodeInvalidInput {
		t.Errorf("code = %q, want %q", e.Error.Code, errors.ErrCodeInvalidInput)
	}
}

func TestViewClickTransitions(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)

	var v viewResponse
	getJSON(t, viewURL(ts, id, "", ""), http.StatusOK, &v)
	if v.Path != "" || v.Title != "bin" {
		t.Fatalf("initial view = %q/%q", v.Path, v.Title)
	}
	mainID := nodeID(t, v.SVG, "main")

	getJSON(t, viewURL(ts, id, v.Path, mainID), http.StatusOK, &v)
	if v.Path != "#bin#main-packages#main" {
		t.Errorf("after click path = %q", v.Path)
	}
	if v.Title != "main - bin" {
		t.Errorf("after click title = %q", v.Title)
	}
	if strings.Contains(v.SVG, "print.go") {
		t.Error("focused view still shows a sibling branch")
	}

	// Clicking the focused node again unfocuses.
	getJSON(t, viewURL(ts, id, v.Path, mainID), http.StatusOK, &v)
	if v.Path != "" {
		t.Errorf("after second click path = %q, want empty", v.Path)
	}

	// A reload with the path restores the focus.
	getJSON(t, viewURL(ts, id, "#bin#std-packages#fmt", ""), http.StatusOK, &v)
	if v.Path != "#bin#std-packages#fmt" {
		t.Errorf("reload path = %q", v.Path)
	}

	// Stale paths fall back to the whole tree.
	getJSON(t, viewURL(ts, id, "#bin#gone", ""), http.StatusOK, &v)
	if v.Path != "" {
		t.Errorf("stale path = %q, want empty", v.Path)
	}
}

func TestViewBadParams(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)
	base := ts.URL + "/api/reports/" + id + "/view?"

	tests := []struct {
		query string
		code  errors.Code
	}{
		{"path=%23" + strings.Repeat("x", errors.MaxNavPathLength), errors.ErrCodeInvalidPath},
		{"w=abc", errors.ErrCodeInvalidInput},
		{"w=-5", errors.ErrCodeInvalidInput},
		{"w=Inf", errors.ErrCodeInvalidInput},
		{"h=NaN", errors.ErrCodeInvalidInput},
		{"click=zz", errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		var e apiError
		getJSON(t, base+tt.query, http.StatusBadRequest, &e)
		if e.Error.Code != tt.code {
			t.Errorf("%s: code = %q, want %q", tt.query, e.Error.Code, tt.code)
		}
	}
}

func TestViewMalformedPathUnfocused(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)

	for _, path := range []string{"#bin##main-packages", "bin#main-packages", "#bin#main-packages#", "#"} {
		var v viewResponse
		getJSON(t, viewURL(ts, id, path, ""), http.StatusOK, &v)
		if v.Path != "" || v.Title != "bin" {
			t.Errorf("view(%q) = %q/%q, want unfocused", path, v.Path, v.Title)
		}
	}
}

func TestTooltip(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)

	var v viewResponse
	getJSON(t, viewURL(ts, id, "", ""), http.StatusOK, &v)
	fmtID := nodeID(t, v.SVG, "fmt")

	var tip tooltipResponse
	getJSON(t, ts.URL+"/api/reports/"+id+"/tooltip?id="+fmtID, http.StatusOK, &tip)
	if tip.Name != "fmt" || tip.Text == "" {
		t.Errorf("tooltip = %+v", tip)
	}
	getJSON(t, ts.URL+"/api/reports/"+id+"/tooltip?id=fffff", http.StatusNotFound, nil)
}

func TestPage(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)

	resp, err := http.Get(ts.URL + "/reports/" + id)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if api, _ := doc.Find("#treemap").Attr("data-api"); api != "/api/reports/"+id {
		t.Errorf("data-api = %q", api)
	}
	if n := doc.Find("#treemap g.node").Length(); n == 0 {
		t.Error("page has no treemap nodes")
	}
	if got := doc.Find("title").First().Text(); got != "bin" {
		t.Errorf("title = %q", got)
	}
}

func TestIndexAndUploadForm(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("report", "report.json")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(sampleReport))
	_ = mw.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("upload form status = %d, want 303", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/reports/") {
		t.Errorf("Location = %q", loc)
	}

	resp, err = http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	rows := doc.Find("tr.report")
	if rows.Length() != 1 {
		t.Fatalf("index lists %d reports, want 1", rows.Length())
	}
	if href, _ := rows.Find("a").Attr("href"); href != loc {
		t.Errorf("link = %q, want %q", href, loc)
	}
	if got := strings.TrimSpace(rows.Find("td.size").Text()); got != entry.FormatBytes(1000) {
		t.Errorf("size cell = %q", got)
	}
}

func TestRenderEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)

	resp, err := http.Get(ts.URL + "/api/reports/" + id + "/render?format=tree&path=" + url.QueryEscape("#bin#main-packages"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, `bin.tree.json`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var node entry.ExportNode
	if err := json.NewDecoder(resp.Body).Decode(&node); err != nil {
		t.Fatal(err)
	}
	if node.Name != entry.PackagesName("main") {
		t.Errorf("export root = %q", node.Name)
	}

	var e apiError
	getJSON(t, ts.URL+"/api/reports/"+id+"/render?format=gif", http.StatusBadRequest, &e)
	if e.Error.Code != errors.ErrCodeInvalidFormat {
		t.Errorf("code = %q, want %q", e.Error.Code, errors.ErrCodeInvalidFormat)
	}

	getJSON(t, ts.URL+"/api/reports/"+id+"/render?w=Inf", http.StatusBadRequest, &e)
	if e.Error.Code != errors.ErrCodeInvalidInput {
		t.Errorf("infinite width code = %q, want %q", e.Error.Code, errors.ErrCodeInvalidInput)
	}
}

func TestDelete(t *testing.T) {
	s, ts := newTestServer(t, Config{})
	id := upload(t, ts, sampleReport)
	if s.trees.Len() != 1 {
		t.Errorf("tree cache holds %d after upload, want 1", s.trees.Len())
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/reports/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	if s.trees.Len() != 0 {
		t.Error("deleted report still cached")
	}
	getJSON(t, viewURL(ts, id, "", ""), http.StatusNotFound, nil)
}

func TestRequestID(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("assigned request id %q is not a uuid", resp.Header.Get(RequestIDHeader))
	}

	want := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, want)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != want {
		t.Errorf("request id = %q, want %q", got, want)
	}
}

func TestTreeCacheEviction(t *testing.T) {
	c := NewTreeCache(2)
	var loads atomic.Int32
	load := func(context.Context) (*Loaded, error) {
		loads.Add(1)
		return &Loaded{}, nil
	}
	ctx := context.Background()
	for _, id := range []string{"a", "b", "a", "c"} {
		if _, err := c.Get(ctx, id, load); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if loads.Load() != 3 {
		t.Errorf("loads = %d, want 3", loads.Load())
	}
	// b was least recently used.
	_, _ = c.Get(ctx, "a", load)
	_, _ = c.Get(ctx, "b", load)
	if loads.Load() != 4 {
		t.Errorf("loads = %d, want 4 (only b reloaded)", loads.Load())
	}
}

func TestTreeCacheLoadError(t *testing.T) {
	c := NewTreeCache(2)
	want := errors.New(errors.ErrCodeStorage, "down")
	_, err := c.Get(context.Background(), "a", func(context.Context) (*Loaded, error) { return nil, want })
	if !errors.Is(err, errors.ErrCodeStorage) {
		t.Errorf("Get() error = %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed load was cached")
	}
}

func TestServeShutdown(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(Config{ShutdownTimeout: time.Second}, store.NewMemoryStore(), pipeline.NewRunner(nil, nil, logger), logger)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
