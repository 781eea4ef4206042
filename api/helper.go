package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sgoldberg/nocogo/fault"
)

type apiResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Data     any            `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (s *server) writeJson(w http.ResponseWriter, status int, data apiResponse, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}

	js = append(js, '\n')
	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js) //nolint:errcheck

	return nil
}

// returnOnError reports whether the request has been answered with an
// error response. Handlers use it to bail out early.
func (s *server) returnOnError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}

	s.handleError(w, r, err)
	return true
}

// positiveIntQueryParam reads an optional positive integer query
// parameter. Absence is not an error; a malformed value is.
func positiveIntQueryParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fault.New(fault.ValidationCode, "").WithMetadata(fault.FieldErrorsMetadata{
			name: []string{"Must be a non-negative integer."},
		})
	}

	return n, nil
}
