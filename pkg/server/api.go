package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/NERVsystems/greenlens/pkg/core"
	"github.com/NERVsystems/greenlens/pkg/footprint"
)

// ServiceMessage is returned by GET /.
const ServiceMessage = "GreenLens Modular AI Engine is running!"

type calculation func(r *http.Request, body []byte) (footprint.Result, error)

// handleRoot reports that the service is up.
func (t *HTTPTransport) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		t.writeError(w, core.NewError(core.ErrNotFound, "no route for "+r.URL.Path))
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		t.writeError(w, methodNotAllowed(w, http.MethodGet))
		return
	}
	t.writeJSON(w, http.StatusOK, map[string]string{"message": ServiceMessage})
}

func (t *HTTPTransport) handleCalculateElectricity(w http.ResponseWriter, r *http.Request) {
	t.serveCalculation(w, r, func(r *http.Request, body []byte) (footprint.Result, error) {
		return t.engine.Electricity(r.Context(), body)
	})
}

func (t *HTTPTransport) handleCalculateTravel(w http.ResponseWriter, r *http.Request) {
	t.serveCalculation(w, r, func(r *http.Request, body []byte) (footprint.Result, error) {
		return t.engine.Travel(r.Context(), body)
	})
}

func (t *HTTPTransport) serveCalculation(w http.ResponseWriter, r *http.Request, calc calculation) {
	if r.Method != http.MethodPost {
		t.writeError(w, methodNotAllowed(w, http.MethodPost))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			t.writeError(w, core.NewValidationError(core.FieldError{
				Loc:  []string{"body"},
				Msg:  "Request body too large",
				Type: core.TypeJSONInvalid,
			}))
			return
		}
		t.writeError(w, core.NewError(core.ErrInternalError, "failed to read request body"))
		return
	}

	res, err := calc(r, body)
	if err != nil {
		var apiErr *core.Error
		if !errors.As(err, &apiErr) {
			apiErr = core.NewError(core.ErrInternalError, "footprint calculation failed")
		}
		t.writeError(w, apiErr)
		return
	}
	t.writeJSON(w, http.StatusOK, res)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) *core.Error {
	w.Header().Set("Allow", allowed)
	return core.NewError(core.ErrMethodNotAllowed, "Method Not Allowed")
}

func (t *HTTPTransport) writeError(w http.ResponseWriter, apiErr *core.Error) {
	t.writeJSON(w, apiErr.HTTPStatus(), apiErr)
}

func (t *HTTPTransport) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Floats use the shortest exact form, so whole kilograms encode as 62
	// rather than 62.0. Clients parse both to the same number.
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.logger.Error("failed to encode response", "status", status, "error", err)
	}
}
