package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sungwon/recipient-check/internal/host"
	"github.com/sungwon/recipient-check/internal/logger"
	"github.com/sungwon/recipient-check/internal/pipeline"
)

const maxBodyBytes = 1 << 20

type resultResponse struct {
	*pipeline.RunResult
	AllValid bool `json:"all_valid"`
}

type runResponse struct {
	Mode    pipeline.Mode     `json:"mode"`
	Preview *pipeline.Preview `json:"preview,omitempty"`
	Result  *resultResponse   `json:"result,omitempty"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type stateResponse struct {
	State       pipeline.State    `json:"state"`
	Mode        pipeline.Mode     `json:"mode"`
	LastResult  *resultResponse   `json:"last_result"`
	LastPreview *pipeline.Preview `json:"last_preview"`
}

func wrapResult(res *pipeline.RunResult) *resultResponse {
	if res == nil {
		return nil
	}
	return &resultResponse{RunResult: res, AllValid: res.AllValid()}
}

// newRunResponse labels the payload with the mode of the run that produced
// it rather than the mode at the time of the request.
func newRunResponse(p *pipeline.Preview, res *pipeline.RunResult) runResponse {
	if res != nil {
		return runResponse{Mode: pipeline.ModeValidate, Result: wrapResult(res)}
	}
	return runResponse{Mode: pipeline.ModePreview, Preview: p}
}

// decodeRecipients reads a {"to":[],"cc":[],"bcc":[]} body.
func decodeRecipients(w http.ResponseWriter, r *http.Request) (*host.Static, bool) {
	var payload host.Static
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return &payload, true
}

// respondRunError maps orchestrator errors to status codes.
func respondRunError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		respondError(w, http.StatusConflict, "run in progress")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, "run cancelled")
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("run failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PreviewHandler handles POST /api/v1/preview.
func PreviewHandler(o *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodeRecipients(w, r)
		if !ok {
			return
		}
		p, err := o.RunPreview(r.Context(), payload)
		if err != nil {
			respondRunError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, p)
	}
}

// ValidateHandler handles POST /api/v1/validate. The response is written
// once every address has been checked.
func ValidateHandler(o *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodeRecipients(w, r)
		if !ok {
			return
		}
		res, err := o.RunValidation(r.Context(), payload)
		if err != nil {
			respondRunError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, wrapResult(res))
	}
}

// RunHandler handles POST /api/v1/run, dispatching on the current mode.
func RunHandler(o *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := decodeRecipients(w, r)
		if !ok {
			return
		}
		p, res, err := o.Run(r.Context(), payload)
		if err != nil {
			respondRunError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, newRunResponse(p, res))
	}
}

// GetModeHandler handles GET /api/v1/mode.
func GetModeHandler(o *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]pipeline.Mode{"mode": o.Mode()})
	}
}

// SetModeHandler handles PUT /api/v1/mode.
func SetModeHandler(o *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req modeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		m, err := pipeline.ParseMode(req.Mode)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := o.SetMode(m); err != nil {
			respondRunError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]pipeline.Mode{"mode": m})
	}
}

// StateHandler handles GET /api/v1/state.
func StateHandler(o *pipeline.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, stateResponse{
			State:       o.State(),
			Mode:        o.Mode(),
			LastResult:  wrapResult(o.LastResult()),
			LastPreview: o.LastPreview(),
		})
	}
}
