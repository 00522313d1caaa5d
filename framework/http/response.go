package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-beans/framework/errs"
	"github.com/km-arc/go-beans/framework/http/validation"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// Created sends 201 JSON: {"data": v}
func (res *Response) Created(v any) {
	res.JSON(http.StatusCreated, envelope{"data": v})
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusBadRequest, "malformed body")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	msg := first(message, "Not found.")
	res.JSON(http.StatusNotFound, envelope{"message": msg})
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	msg := first(message, "Server Error.")
	res.JSON(http.StatusInternalServerError, envelope{"message": msg})
}

// ValidationError sends 422 with the error bag.
//
//	res.ValidationError(validation.Struct(&body))
func (res *Response) ValidationError(errors *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errors)
}

// Fail maps a container error to a status and sends
// {"message": ..., "kind": ...}.
func (res *Response) Fail(err error) {
	kind := errs.KindOf(err)
	body := envelope{"message": err.Error()}
	if kind != "" {
		body["kind"] = string(kind)
	}
	res.JSON(StatusOf(err), body)
}

// StatusOf returns the HTTP status for a container error. Unknown names
// are 404, system failures and unkinded errors 500, and everything else a
// 422 since the request named a bean that cannot be built as declared.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, errs.BeanNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.System), errs.KindOf(err) == "":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
