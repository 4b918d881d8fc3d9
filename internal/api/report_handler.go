package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sungwon/recipient-check/internal/logger"
	"github.com/sungwon/recipient-check/internal/report"
)

// GetReportHandler handles GET /api/v1/reports/{id} and returns the
// exported JSON of a finished validation run.
func GetReportHandler(store report.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" || strings.ContainsAny(id, `/\.`) {
			respondError(w, http.StatusBadRequest, "invalid report id")
			return
		}

		data, err := store.Get(r.Context(), id+".json")
		if err != nil {
			if errors.Is(err, report.ErrNotFound) {
				respondError(w, http.StatusNotFound, "report not found")
				return
			}
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Str("report_id", id).Msg("failed to load report")
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
