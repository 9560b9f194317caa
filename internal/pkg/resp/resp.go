// Package resp writes JSON HTTP responses.
package resp

import (
	"encoding/json"
	"errors"
	"net/http"

	"claymud/internal/pkg/errs"
	"claymud/internal/pkg/logx"
)

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// RespondSuccess writes data with HTTP 200 and code 0.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	write(w, r, http.StatusOK, envelope{Code: 0, Data: data})
}

// RespondError writes err using its registered status when it is a
// *errs.CustomError, and a generic 500 otherwise.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	var custom *errs.CustomError
	if !errors.As(err, &custom) {
		logx.Error(err, "unclassified error in HTTP handler", "uri", r.RequestURI)
		custom = errs.NewError(errs.ErrUnknown)
	}
	status := custom.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	write(w, r, status, envelope{Code: custom.Code, Message: custom.Message})
}

func write(w http.ResponseWriter, r *http.Request, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error(err, "failed to encode response body", "uri", r.RequestURI)
	}
}
