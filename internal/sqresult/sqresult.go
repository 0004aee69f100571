// Package sqresult is the HTTP response envelope used by internal/sqserver,
// trimmed down from server/result to the handful of status helpers the
// session API needs.
package sqresult

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body written for any error Result.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// Result is a deferred HTTP response: handlers build and return one rather
// than writing to a http.ResponseWriter directly, so logging and
// marshal-failure recovery can be handled in one place.
type Result struct {
	Status      int
	IsErr       bool
	InternalMsg string

	resp interface{}
	hdrs [][2]string
}

// OK returns a Result for an HTTP-200 carrying respObj as its JSON body.
func OK(respObj interface{}, internalMsg string, args ...interface{}) Result {
	return Result{Status: http.StatusOK, resp: respObj, InternalMsg: fmt.Sprintf(internalMsg, args...)}
}

// Created returns a Result for an HTTP-201 carrying respObj as its JSON
// body.
func Created(respObj interface{}, internalMsg string, args ...interface{}) Result {
	return Result{Status: http.StatusCreated, resp: respObj, InternalMsg: fmt.Sprintf(internalMsg, args...)}
}

// NoContent returns a Result for an HTTP-204 with no body.
func NoContent(internalMsg string, args ...interface{}) Result {
	return Result{Status: http.StatusNoContent, InternalMsg: fmt.Sprintf(internalMsg, args...)}
}

// BadRequest returns a Result for an HTTP-400 with userMsg as the JSON
// error body.
func BadRequest(userMsg string, internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusBadRequest, userMsg, internalMsg, args...)
}

// NotFound returns a Result for an HTTP-404.
func NotFound(internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusNotFound, "the requested resource was not found", internalMsg, args...)
}

// Unauthorized returns a Result for an HTTP-401, with the WWW-Authenticate
// header set.
func Unauthorized(userMsg string, internalMsg string, args ...interface{}) Result {
	if userMsg == "" {
		userMsg = "you are not authorized to do that"
	}
	return errResult(http.StatusUnauthorized, userMsg, internalMsg, args...).
		WithHeader("WWW-Authenticate", `Bearer realm="sequitur server"`)
}

// Forbidden returns a Result for an HTTP-403.
func Forbidden(internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusForbidden, "you don't have permission to do that", internalMsg, args...)
}

// InternalServerError returns a Result for an HTTP-500.
func InternalServerError(internalMsg string, args ...interface{}) Result {
	return errResult(http.StatusInternalServerError, "an internal server error occurred", internalMsg, args...)
}

func errResult(status int, userMsg, internalMsg string, args ...interface{}) Result {
	return Result{
		Status:      status,
		IsErr:       true,
		InternalMsg: fmt.Sprintf(internalMsg, args...),
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// WithHeader returns a copy of r with the given header added to what will
// be written.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.hdrs = append(append([][2]string{}, r.hdrs...), [2]string{name, val})
	return cp
}

// WriteResponse marshals and writes r to w. It panics if r was never
// assigned a Status, matching the contract that every handler must return
// a fully-populated Result.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("sqresult: Result not populated")
	}

	var body []byte
	if r.Status != http.StatusNoContent && r.resp != nil {
		var err error
		body, err = json.Marshal(r.resp)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"could not marshal response","status":500}`))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}
	w.WriteHeader(r.Status)
	if len(body) > 0 {
		w.Write(body)
	}
}
