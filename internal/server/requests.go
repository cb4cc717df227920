package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; a joke is a single URL.
const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// createRequest is the body of POST /jokes. URL is a pointer so that a
// missing or null url is rejected while an empty string is accepted.
type createRequest struct {
	URL *string `json:"url" validate:"required"`
}

// jokeIDRequest carries the id taken from /joke/{id}.
type jokeIDRequest struct {
	ID int64
}

func decodeCreateRequest(w http.ResponseWriter, r *http.Request) (*createRequest, error) {
	var req createRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("field %q is required", "url")
		}
		return nil, err
	}

	return &req, nil
}

func decodeJokeID(r *http.Request) (*jokeIDRequest, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid joke id %q", raw)
	}
	return &jokeIDRequest{ID: id}, nil
}
