package request

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultEventLimit = 100
	MaxEventLimit     = 1000
)

var (
	ErrInvalidSiteID = errors.New("site id must be a positive integer")
	ErrInvalidLimit  = errors.New("limit must be a positive integer")
)

// SiteID reads the {id} path parameter.
func SiteID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidSiteID
	}
	return id, nil
}

// EventLimit reads the optional ?limit= query parameter, capped at MaxEventLimit.
func EventLimit(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultEventLimit, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidLimit
	}
	if n > MaxEventLimit {
		n = MaxEventLimit
	}
	return n, nil
}
