package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
	"github.com/leapstack-labs/jokebox/internal/testutil"
)

type testEnv struct {
	server *httptest.Server
	pool   *pool.Pool
	logs   *testutil.LogBuffer
}

func setupSQLiteServer(t *testing.T, mode string) *testEnv {
	t.Helper()

	cfg := store.Config{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "jokes.db"),
		MaxConns: 4,
	}
	db, d, err := store.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db, d))

	p := pool.New(db, pool.Config{MaxConns: 4, AcquireTimeout: 5 * time.Second}, nil)
	return startServer(t, p, store.New(d), mode)
}

func startServer(t *testing.T, p *pool.Pool, s *store.Store, mode string) *testEnv {
	t.Helper()

	logger, logs := testutil.NewCaptureLogger()
	srv := NewServer(Config{
		Pool:           p,
		Store:          s,
		CollectionMode: mode,
		MetricsEnabled: true,
		Logger:         logger,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = p.Close(context.Background())
	})

	return &testEnv{server: ts, pool: p, logs: logs}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decodeRecord(t *testing.T, data []byte) store.Record {
	t.Helper()
	var rec store.Record
	require.NoError(t, json.Unmarshal(data, &rec))
	return rec
}

func TestServer_CreateReadDeleteScenario(t *testing.T) {
	env := setupSQLiteServer(t, ModeRandom)

	status, body := env.do(t, http.MethodPost, "/jokes", `{"url":"http://a"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.JSONEq(t, `{"id":1,"url":"http://a"}`, string(body))

	status, body = env.do(t, http.MethodGet, "/joke/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":1,"url":"http://a"}`, string(body))

	status, body = env.do(t, http.MethodDelete, "/joke/1", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, body)

	status, _ = env.do(t, http.MethodGet, "/joke/1", "")
	assert.Equal(t, http.StatusNotFound, status)

	assert.NotContains(t, env.logs.String(), "operation failed", "not-found must not be logged as a failure")
}

func TestServer_DeleteOneMissingIsNoContent(t *testing.T) {
	env := setupSQLiteServer(t, ModeRandom)

	status, _ := env.do(t, http.MethodDelete, "/joke/999", "")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestServer_DeleteAll(t *testing.T) {
	env := setupSQLiteServer(t, ModeRandom)

	status, body := env.do(t, http.MethodDelete, "/jokes", "")
	assert.Equal(t, http.StatusNotModified, status, "deleting from an empty table is a no-change")
	assert.Empty(t, body)

	for _, url := range []string{"http://a", "http://b"} {
		status, _ := env.do(t, http.MethodPost, "/jokes", fmt.Sprintf(`{"url":%q}`, url))
		require.Equal(t, http.StatusCreated, status)
	}

	status, _ = env.do(t, http.MethodDelete, "/jokes", "")
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/jokes/all", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))
}

func TestServer_RandomMode(t *testing.T) {
	env := setupSQLiteServer(t, ModeRandom)

	status, _ := env.do(t, http.MethodGet, "/jokes", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodGet, "/jokes/random", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/jokes", `{"url":"http://only"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := env.do(t, http.MethodGet, "/jokes", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, store.Record{ID: 1, URL: "http://only"}, decodeRecord(t, body))
}

func TestServer_AllMode(t *testing.T) {
	env := setupSQLiteServer(t, ModeAll)

	status, body := env.do(t, http.MethodGet, "/jokes", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, string(body))

	for _, url := range []string{"http://a", "http://b"} {
		status, _ := env.do(t, http.MethodPost, "/jokes", fmt.Sprintf(`{"url":%q}`, url))
		require.Equal(t, http.StatusCreated, status)
	}

	status, body = env.do(t, http.MethodGet, "/jokes", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[{"id":1,"url":"http://a"},{"id":2,"url":"http://b"}]`, string(body))

	status, body = env.do(t, http.MethodGet, "/jokes/random", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, []string{"http://a", "http://b"}, decodeRecord(t, body).URL)
}

func TestServer_RejectsMalformedInput(t *testing.T) {
	env := setupSQLiteServer(t, ModeRandom)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid json", http.MethodPost, "/jokes", `{"url":`, http.StatusBadRequest},
		{"missing url", http.MethodPost, "/jokes", `{}`, http.StatusBadRequest},
		{"null url", http.MethodPost, "/jokes", `{"url":null}`, http.StatusBadRequest},
		{"wrong type", http.MethodPost, "/jokes", `{"url":42}`, http.StatusBadRequest},
		{"empty url accepted", http.MethodPost, "/jokes", `{"url":""}`, http.StatusCreated},
		{"non-numeric id", http.MethodGet, "/joke/abc", "", http.StatusBadRequest},
		{"non-numeric id delete", http.MethodDelete, "/joke/abc", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestServer_ConcurrentInserts(t *testing.T) {
	env := setupSQLiteServer(t, ModeAll)

	const n = 25
	ids := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status, body := env.do(t, http.MethodPost, "/jokes", fmt.Sprintf(`{"url":"http://%d"}`, i))
			if assert.Equal(t, http.StatusCreated, status) {
				ids <- decodeRecord(t, body).ID
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)

	status, body := env.do(t, http.MethodGet, "/jokes/all", "")
	require.Equal(t, http.StatusOK, status)
	var records []store.Record
	require.NoError(t, json.Unmarshal(body, &records))
	assert.Len(t, records, n)
}

func TestServer_IndexHealthAndMetrics(t *testing.T) {
	env := setupSQLiteServer(t, ModeRandom)

	status, body := env.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello, World!", string(body))

	status, body = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","records":0}`, string(body))

	env.do(t, http.MethodGet, "/jokes", "")

	status, body = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `jokebox_operations_total{operation="read_random",outcome="not_found",status="404"} 1`)
	assert.Contains(t, string(body), "jokebox_pool_slots_capacity 4")
}

func TestServer_QueryFailureIsGeneric500(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	d, err := store.Lookup("sqlite")
	require.NoError(t, err)

	p := pool.New(db, pool.Config{MaxConns: 1}, nil)
	env := startServer(t, p, store.New(d), ModeRandom)

	mock.ExpectQuery("INSERT INTO jokes").WillReturnError(errors.New("disk I/O error"))

	status, body := env.do(t, http.MethodPost, "/jokes", `{"url":"http://a"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, string(body), "disk I/O")
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, string(body))

	logs := env.logs.String()
	assert.Contains(t, logs, "operation failed")
	assert.Contains(t, logs, `"operation":"create"`)
	assert.Contains(t, logs, `"outcome":"query_failed"`)
	assert.Contains(t, logs, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServer_AcquisitionFailureIs500(t *testing.T) {
	cfg := store.Config{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "jokes.db"),
		MaxConns: 1,
	}
	db, d, err := store.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db, d))

	p := pool.New(db, pool.Config{MaxConns: 1}, nil)
	env := startServer(t, p, store.New(d), ModeRandom)

	started := make(chan struct{})
	release := make(chan struct{})
	held := make(chan error, 1)
	go func() {
		held <- p.Do(context.Background(), func(_ context.Context, _ *sql.Conn) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	status, body := env.do(t, http.MethodGet, "/joke/1", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, string(body), "exhausted")
	assert.Contains(t, env.logs.String(), `"outcome":"acquisition_failed"`)

	status, _ = env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	close(release)
	require.NoError(t, <-held)

	status, _ = env.do(t, http.MethodGet, "/joke/1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_ServeListenerShutsDown(t *testing.T) {
	cfg := store.Config{Driver: "sqlite", Path: store.MemoryPath}
	db, d, err := store.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db, d))

	p := pool.New(db, pool.Config{MaxConns: store.MaxConns(cfg)}, nil)
	defer func() { _ = p.Close(context.Background()) }()

	srv := NewServer(Config{
		Pool:   p,
		Store:  store.New(d),
		Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	})
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ServeListener(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/jokes", "application/json", strings.NewReader(`{"url":"http://a"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
