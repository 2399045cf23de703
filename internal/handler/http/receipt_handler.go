package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
)

type ReceiptHandler struct {
	service receipt.Service
}

func NewReceiptHandler(s receipt.Service) *ReceiptHandler {
	return &ReceiptHandler{service: s}
}

func (h *ReceiptHandler) RegisterRoutes(router chi.Router) {
	router.Route("/receipts", func(r chi.Router) {
		r.Get("/", h.listReceipts)
		r.Get("/{id}", h.getReceipt)
		r.Get("/{id}/qrcode", h.qrCode)
		r.Post("/{id}/email", h.markEmailed)
	})
}

func parseReceiptFilter(r *http.Request) (receipt.ListFilter, error) {
	var (
		f   receipt.ListFilter
		err error
	)
	if f.OrderID, err = queryUUID(r, "order_id"); err != nil {
		return f, err
	}
	if f.CustomerID, err = queryUUID(r, "customer_id"); err != nil {
		return f, err
	}
	if f.From, err = queryTime(r, "from", false); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "to", true); err != nil {
		return f, err
	}
	return f, nil
}

func (h *ReceiptHandler) listReceipts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReceiptFilter(r)
	if err != nil {
		respondWithServiceError(w, err, "Invalid receipt filter")
		return
	}

	receipts, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list receipts")
		return
	}

	resp := make([]receiptResponse, 0, len(receipts))
	for i := range receipts {
		resp = append(resp, toReceiptResponse(&receipts[i]))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *ReceiptHandler) getReceipt(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	rc, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get receipt")
		return
	}
	respondWithJSON(w, http.StatusOK, toReceiptResponse(rc))
}

func (h *ReceiptHandler) qrCode(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	png, err := h.service.QRCode(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to render receipt QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Stringer("receipt_id", id).Msg("Failed to write QR code")
	}
}

func (h *ReceiptHandler) markEmailed(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	rc, err := h.service.MarkEmailed(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to mark receipt as emailed")
		return
	}
	respondWithJSON(w, http.StatusOK, toReceiptResponse(rc))
}
