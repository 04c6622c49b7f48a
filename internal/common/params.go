package common

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AtoiDefault converts value to an int, returning def when it is empty or malformed.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// UUIDParam parses the chi URL parameter name as a UUID.
func UUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, BadRequest(name, name+" must be a valid uuid", err)
	}
	return id, nil
}

// DecimalQuery parses the query parameter name as a decimal amount.
func DecimalQuery(r *http.Request, name string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return decimal.Zero, BadRequest(name, name+" is required", nil)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, BadRequest(name, name+" must be a decimal", err)
	}
	return d, nil
}

// OptionalQuery returns a pointer to the trimmed query parameter, or nil when it is blank.
func OptionalQuery(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	return OptionalString(&raw)
}

// OptionalString trims v and maps a nil or blank value to nil.
func OptionalString(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
