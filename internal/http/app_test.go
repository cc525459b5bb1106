package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"marketview/internal/config"
	"marketview/internal/http/handlers"
	"marketview/internal/metrics"
	"marketview/internal/repos"
	"marketview/internal/search"
	"marketview/internal/snapshot"
)

func txt(s string) snapshot.Text { return snapshot.Text{Value: s, Valid: true} }

func testSet() snapshot.Set {
	return snapshot.Set{
		Cars: []snapshot.CarRecord{
			{ID: txt("c1"), Brand: txt("Toyota"), Model: txt("Corolla"), SellerName: txt("Auto Dakar"), Location: txt("Dakar"), Price: txt("6 500 000"), Year: txt("2015")},
			{ID: txt("c2"), Brand: txt("Kia"), Model: txt("Picanto"), Location: txt("Thiès"), Price: txt("3200000")},
		},
		Jumia: []snapshot.JumiaRecord{
			{ID: txt("j1"), BrandName: txt("Samsung"), ProductName: txt("Galaxy A15"), Price: txt("89900"), ReviewsCount: txt("87")},
			{ID: txt("j2"), BrandName: txt("Tecno"), ProductName: txt("Spark 20"), Price: txt("74500"), ReviewsCount: txt("300")},
		},
	}
}

type testEnv struct {
	app *fiber.App
	db  *sqlx.DB
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDSN = ":memory:"
	cfg.RateLimit = 1000
	for _, m := range mutate {
		m(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.SeedIfEmpty(db, testSet()))

	m := metrics.New()
	finder, err := search.FromSnapshot(testSet(), m)
	require.NoError(t, err)

	return &testEnv{app: handlers.NewApp(handlers.NewDeps(db, cfg, finder, m)), db: db}
}

type request struct {
	method  string
	target  string
	form    string
	cookies []*http.Cookie
}

func (e *testEnv) do(t *testing.T, r request) *http.Response {
	t.Helper()
	method := r.method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if r.form != "" {
		body = strings.NewReader(r.form)
	}
	req := httptest.NewRequest(method, r.target, body)
	if r.form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, target string, cookies ...*http.Cookie) *http.Response {
	return e.do(t, request{target: target, cookies: cookies})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func cookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	ReqID  string         `json:"req_id"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf lockedBuf
	oldW, oldFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(buf.b.String(), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
