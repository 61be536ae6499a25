package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/outfitter-dev/waymark/internal/edit"
	"github.com/outfitter-dev/waymark/internal/index"
	"github.com/outfitter-dev/waymark/internal/lint"
	"github.com/outfitter-dev/waymark/internal/markservice"
	"github.com/outfitter-dev/waymark/internal/scan"
	"github.com/outfitter-dev/waymark/internal/testutil"
)

var fixture = map[string]string{
	"src/auth.go":   "package auth\n\n// tldr ::: session handling ref:#auth/session\n// todo ::: rotate keys @alice #security\n",
	"src/login.go":  "package auth\n\n// ~fixme ::: refresh tokens depends:#auth/session\n",
	"docs/guide.md": "# Guide\n\n<!-- *note ::: read me first #security -->\n",
}

// testEnv sets up a synced temp workspace, SQLite cache, service, and
// router. A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) (http.Handler, string) {
	t.Helper()
	dir, store := testutil.TestWorkspace(t)
	testutil.WriteFiles(t, dir, fixture)
	db := testutil.TestDB(t)
	scanner := scan.New()
	if _, err := index.Sync(context.Background(), db, store, scanner, testutil.Logger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	linter, err := lint.New()
	if err != nil {
		t.Fatal(err)
	}
	svc := markservice.NewService(store, db, scanner, edit.New(store, scanner), linter)
	return NewRouter(svc, authEnabled, token, sseHandler), dir
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, target, bytes.NewReader(b))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) WaymarkListResponse {
	t.Helper()
	var resp WaymarkListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestFindWaymarks_Filters(t *testing.T) {
	router, _ := testEnv(t, "")

	cases := []struct {
		query string
		want  int
	}{
		{"/waymarks", 4},
		{"/waymarks?type=todo", 1},
		{"/waymarks?type=fix", 1},
		{"/waymarks?tag=security", 2},
		{"/waymarks?mention=alice", 1},
		{"/waymarks?file=src/", 3},
		{"/waymarks?flagged=true", 1},
		{"/waymarks?starred=1", 1},
		{"/waymarks?limit=1", 1},
	}
	for _, tc := range cases {
		w := do(t, router, http.MethodGet, tc.query, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", tc.query, w.Code)
		}
		if got := decodeList(t, w); got.Total != tc.want || len(got.Waymarks) != tc.want {
			t.Errorf("%s = %d waymarks, want %d", tc.query, got.Total, tc.want)
		}
	}
}

func TestScanFile(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/files/docs%2Fguide.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var d FileDetail
	_ = json.Unmarshal(w.Body.Bytes(), &d)
	if d.Path != "docs/guide.md" || d.Language != "markdown" || len(d.Waymarks) != 1 {
		t.Errorf("detail = %+v", d)
	}
	if !d.Waymarks[0].Signals.Starred {
		t.Error("starred signal lost")
	}

	if w := do(t, router, http.MethodGet, "/files/nope.go", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}

func TestAddUpdateRemoveWaymark(t *testing.T) {
	router, dir := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/waymarks", AddWaymarkRequest{File: "src/login.go", Line: 2, Type: "note", Content: "entry point"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d, body = %s", w.Code, w.Body.String())
	}
	var added EditResponse
	_ = json.Unmarshal(w.Body.Bytes(), &added)
	if added.Record.StartLine != 2 || added.Record.Type != "note" {
		t.Errorf("added = %+v", added.Record)
	}
	if got := decodeList(t, do(t, router, http.MethodGet, "/waymarks?file=src/login.go", nil)); got.Total != 2 {
		t.Errorf("cache not refreshed after add: %d", got.Total)
	}

	done := "done"
	w = do(t, router, http.MethodPatch, "/waymarks", UpdateWaymarkRequest{File: "src/login.go", Line: 2, Type: &done})
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodPatch, "/waymarks", UpdateWaymarkRequest{File: "src/login.go", Line: 2, Raw: "// note ::: stale", Type: &done})
	if w.Code != http.StatusConflict {
		t.Errorf("stale update = %d, want 409", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/waymarks?file=src/login.go&line=2", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ := os.ReadFile(filepath.Join(dir, "src", "login.go"))
	if strings.Contains(string(data), "entry point") {
		t.Errorf("file still has waymark: %q", data)
	}

	if w := do(t, router, http.MethodDelete, "/waymarks?file=src/login.go&line=1", nil); w.Code != http.StatusNotFound {
		t.Errorf("remove non-waymark = %d, want 404", w.Code)
	}
}

func TestAddWaymark_BadRequests(t *testing.T) {
	router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodPost, "/waymarks", map[string]string{"file": "src/auth.go"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing type = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/waymarks", AddWaymarkRequest{File: "src/auth.go", Type: "to do"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad marker = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/waymarks", AddWaymarkRequest{File: "ghost.go", Type: "todo"}); w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/waymarks", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/search?q=rotate", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 || resp.Results[0].File != "src/auth.go" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestGraphAndBacklinks(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/graph", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d", w.Code)
	}
	var g GraphResponse
	_ = json.Unmarshal(w.Body.Bytes(), &g)
	if len(g.Edges) != 2 || len(g.Anchors) != 1 {
		t.Errorf("graph = %+v", g)
	}

	w = do(t, router, http.MethodGet, "/backlinks?token=Auth/Session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("backlinks = %d", w.Code)
	}
	var bl struct {
		Token string `json:"token"`
		Edges []any  `json:"edges"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &bl)
	if bl.Token != "#auth/session" || len(bl.Edges) != 2 {
		t.Errorf("backlinks = %+v", bl)
	}

	if w := do(t, router, http.MethodGet, "/backlinks", nil); w.Code != http.StatusBadRequest {
		t.Errorf("backlinks no token = %d, want 400", w.Code)
	}
}

func TestLintAndStats(t *testing.T) {
	router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/lint", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lint = %d", w.Code)
	}
	var lr LintResponse
	_ = json.Unmarshal(w.Body.Bytes(), &lr)
	if len(lr.Issues) != 0 || lr.Errors {
		t.Errorf("lint = %+v", lr)
	}

	w = do(t, router, http.MethodGet, "/stats", nil)
	var s index.Stats
	_ = json.Unmarshal(w.Body.Bytes(), &s)
	if s != (index.Stats{Files: 3, Waymarks: 4, Edges: 2}) {
		t.Errorf("stats = %+v", s)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/waymarks", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/waymarks", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/waymarks", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/waymarks", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForGet(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	if w := do(t, router, http.MethodGet, "/waymarks?access_token=secret123", nil); w.Code != http.StatusOK {
		t.Errorf("GET with query token = %d, want 200", w.Code)
	}
	w := do(t, router, http.MethodPost, "/waymarks?access_token=secret123", AddWaymarkRequest{File: "src/auth.go", Type: "todo", Content: "x"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
	var body errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Code != codeUnauthorized {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestWriteError_Codes(t *testing.T) {
	router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/files/missing.go", nil)
	var body errResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusNotFound || body.Code != codeNotFound {
		t.Errorf("missing file = %d %+v", w.Code, body)
	}
}

// Minimal SSE handler stub: writes headers and blocks until context done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "secret", sseStub)
	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router, _ := testEnvWithSSE(t, false, "", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE disabled auth = %d, want 200", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router, _ := testEnvWithSSE(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
