package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vasiliy-maslov/restaurant-pos/internal/apperror"
	"github.com/vasiliy-maslov/restaurant-pos/internal/report"
)

type ReportHandler struct {
	service report.Service
}

func NewReportHandler(s report.Service) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) RegisterRoutes(router chi.Router) {
	router.Get("/reports/sales", h.sales)
	router.Get("/reports/dashboard", h.dashboard)
}

func (h *ReportHandler) sales(w http.ResponseWriter, r *http.Request) {
	q := report.Query{Period: report.Period(r.URL.Query().Get("period"))}

	var err error
	if q.Start, err = queryTime(r, "start_date", false); err != nil {
		respondWithServiceError(w, err, "Invalid report range")
		return
	}
	if q.End, err = queryTime(r, "end_date", true); err != nil {
		respondWithServiceError(w, err, "Invalid report range")
		return
	}

	sales, err := h.service.Sales(r.Context(), q)
	if err != nil {
		respondWithServiceError(w, err, "Failed to build sales report")
		return
	}
	respondWithJSON(w, http.StatusOK, toSalesResponse(sales))
}

func (h *ReportHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	var day time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			respondWithServiceError(w, apperror.Invalid("date", "must be YYYY-MM-DD"), "Invalid dashboard date")
			return
		}
		day = parsed
	}

	d, err := h.service.Dashboard(r.Context(), day)
	if err != nil {
		respondWithServiceError(w, err, "Failed to build dashboard")
		return
	}
	respondWithJSON(w, http.StatusOK, toDashboardResponse(d))
}
