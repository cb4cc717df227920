package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/leapstack-labs/jokebox/internal/outcome"
	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// Collection modes for GET /jokes.
const (
	ModeRandom = "random"
	ModeAll    = "all"
)

// Handlers provides the HTTP handlers for joke operations.
type Handlers struct {
	pool           *pool.Pool
	store          *store.Store
	logger         *slog.Logger
	metrics        *Metrics
	collectionMode string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(p *pool.Pool, s *store.Store, metrics *Metrics, collectionMode string, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if collectionMode == "" {
		collectionMode = ModeRandom
	}
	return &Handlers{
		pool:           p,
		store:          s,
		logger:         logger,
		metrics:        metrics,
		collectionMode: collectionMode,
	}
}

// Index answers the root path.
func (h *Handlers) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World!"))
}

// CreateJoke stores the url from the request body.
func (h *Handlers) CreateJoke(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRequest(w, r)
	if err != nil {
		h.rejectRequest(w, r, outcome.OpCreate, err)
		return
	}

	h.run(w, r, outcome.OpCreate, func(ctx context.Context) (outcome.Outcome, any) {
		rec, err := pool.WithConnection(ctx, h.pool, func(ctx context.Context, conn *sql.Conn) (*store.Record, error) {
			return h.store.Insert(ctx, conn, *req.URL)
		})
		if err != nil {
			return outcome.FromError(err), nil
		}
		return outcome.Of(outcome.Created), rec
	})
}

// GetJoke returns the joke with the id from the path.
func (h *Handlers) GetJoke(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJokeID(r)
	if err != nil {
		h.rejectRequest(w, r, outcome.OpReadOne, err)
		return
	}

	h.run(w, r, outcome.OpReadOne, func(ctx context.Context) (outcome.Outcome, any) {
		rec, err := pool.WithConnection(ctx, h.pool, func(ctx context.Context, conn *sql.Conn) (*store.Record, error) {
			return h.store.FindByID(ctx, conn, req.ID)
		})
		return outcome.FromRecord(rec, err), rec
	})
}

// GetJokes serves GET /jokes according to the configured collection mode.
func (h *Handlers) GetJokes(w http.ResponseWriter, r *http.Request) {
	if h.collectionMode == ModeAll {
		h.ListJokes(w, r)
		return
	}
	h.RandomJoke(w, r)
}

// ListJokes returns every joke.
func (h *Handlers) ListJokes(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, outcome.OpReadAll, func(ctx context.Context) (outcome.Outcome, any) {
		records, err := pool.WithConnection(ctx, h.pool, func(ctx context.Context, conn *sql.Conn) ([]store.Record, error) {
			return h.store.ListAll(ctx, conn)
		})
		if err != nil {
			return outcome.FromError(err), nil
		}
		return outcome.Of(outcome.Success), records
	})
}

// RandomJoke returns one joke picked at random.
func (h *Handlers) RandomJoke(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, outcome.OpReadRandom, func(ctx context.Context) (outcome.Outcome, any) {
		rec, err := pool.WithConnection(ctx, h.pool, func(ctx context.Context, conn *sql.Conn) (*store.Record, error) {
			return h.store.PickRandom(ctx, conn)
		})
		return outcome.FromRecord(rec, err), rec
	})
}

// DeleteJoke removes the joke with the id from the path.
func (h *Handlers) DeleteJoke(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJokeID(r)
	if err != nil {
		h.rejectRequest(w, r, outcome.OpDeleteOne, err)
		return
	}

	h.run(w, r, outcome.OpDeleteOne, func(ctx context.Context) (outcome.Outcome, any) {
		n, err := pool.WithConnection(ctx, h.pool, func(ctx context.Context, conn *sql.Conn) (int64, error) {
			return h.store.DeleteByID(ctx, conn, req.ID)
		})
		return outcome.FromDeleted(n, err), nil
	})
}

// DeleteAllJokes removes every joke.
func (h *Handlers) DeleteAllJokes(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, outcome.OpDeleteAll, func(ctx context.Context) (outcome.Outcome, any) {
		n, err := pool.WithConnection(ctx, h.pool, func(ctx context.Context, conn *sql.Conn) (int64, error) {
			return h.store.DeleteAll(ctx, conn)
		})
		return outcome.FromDeleted(n, err), nil
	})
}

// Health reports whether the backend is reachable and how many jokes it holds.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	count, err := pool.WithConnection(r.Context(), h.pool, func(ctx context.Context, conn *sql.Conn) (int64, error) {
		return h.store.Count(ctx, conn)
	})
	if err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": count})
}

// run executes one operation and writes the response chosen by the classifier.
func (h *Handlers) run(w http.ResponseWriter, r *http.Request, op outcome.Op, fn func(ctx context.Context) (outcome.Outcome, any)) {
	start := time.Now()
	o, payload := fn(r.Context())
	status := outcome.Classify(op, o)
	h.metrics.observe(op, o.Kind, status, time.Since(start))

	if o.IsFailure() {
		h.logger.Error("operation failed",
			slog.String("operation", string(op)),
			slog.String("outcome", o.Kind.String()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", o.Err),
		)
		writeError(w, status, http.StatusText(status))
		return
	}

	switch status {
	case http.StatusNoContent, http.StatusNotModified:
		w.WriteHeader(status)
	case http.StatusNotFound:
		writeError(w, status, "joke not found")
	default:
		writeJSON(w, status, payload)
	}
}

// rejectRequest answers input that could not be decoded before reaching the core.
func (h *Handlers) rejectRequest(w http.ResponseWriter, r *http.Request, op outcome.Op, err error) {
	h.logger.Debug("rejected request",
		slog.String("operation", string(op)),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
