package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sahelpay/momo/internal/domain/payment"
	"github.com/sahelpay/momo/internal/phone"
	"github.com/sahelpay/momo/internal/registry"
	"github.com/sahelpay/momo/internal/service"
)

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	paymentService *service.PaymentService
	registry       *registry.Registry
	validator      *phone.Validator
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(
	paymentService *service.PaymentService,
	reg *registry.Registry,
	validator *phone.Validator,
) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		registry:       reg,
		validator:      validator,
	}
}

// InitiatePayment handles POST /api/v1/payments
func (h *PaymentController) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req InitiatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	clientID := parseUUID(req.ClientID)
	if req.ClientID != nil && clientID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid client_id", Code: "invalid_id"})
		return
	}
	supplierID := parseUUID(req.SupplierID)
	if req.SupplierID != nil && supplierID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid supplier_id", Code: "invalid_id"})
		return
	}

	resp, err := h.paymentService.InitiatePayment(r.Context(), payment.Request{
		Amount:      payment.Amount{Value: req.Amount, Currency: req.Currency},
		Description: req.Description,
		Reference:   req.Reference,
		Direction:   payment.Direction(req.Direction),
		Method: payment.MobileMoneyInfo{
			Provider:    payment.Provider(req.Provider),
			PhoneNumber: req.PhoneNumber,
			Country:     payment.Country(req.Country),
			AccountName: req.AccountName,
		},
		ClientID:    clientID,
		SupplierID:  supplierID,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &InitiatePaymentResponse{
		Payment:         FromPayment(resp.Payment),
		RedirectURL:     resp.RedirectURL,
		CustomerMessage: resp.CustomerMessage,
	})
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	p, err := h.paymentService.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// CheckStatus handles GET /api/v1/payments/{id}/status
func (h *PaymentController) CheckStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	p, err := h.paymentService.CheckPaymentStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// GetEvents handles GET /api/v1/payments/{id}/events
func (h *PaymentController) GetEvents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	events, err := h.paymentService.GetPaymentEvents(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, FromEvent(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentController) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	payments, err := h.paymentService.ListPayments(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, FromPayment(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CancelPayment handles POST /api/v1/payments/{id}/cancel
func (h *PaymentController) CancelPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	p, err := h.paymentService.CancelPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// RefundPayment handles POST /api/v1/payments/{id}/refund
func (h *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return
	}

	// Body is optional; an empty body means a full refund.
	var req RefundPaymentRequest
	if r.ContentLength > 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	p, err := h.paymentService.RefundPayment(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// GetStats handles GET /api/v1/payments/stats
func (h *PaymentController) GetStats(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.paymentService.GetPaymentStats(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromStats(summary))
}

// ValidatePhone handles POST /api/v1/phone/validate
func (h *PaymentController) ValidatePhone(w http.ResponseWriter, r *http.Request) {
	var req ValidatePhoneRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result := h.validator.Validate(req.PhoneNumber, payment.Provider(req.Provider), payment.Country(req.Country))
	writeJSON(w, http.StatusOK, &ValidatePhoneResponse{Valid: result.Valid, Reason: result.Reason})
}

// ListProviders handles GET /api/v1/countries/{country}/providers
func (h *PaymentController) ListProviders(w http.ResponseWriter, r *http.Request) {
	country := payment.Country(chi.URLParam(r, "country"))
	providers := h.registry.AvailableProviders(country)

	resp := make([]string, 0, len(providers))
	for _, p := range providers {
		resp = append(resp, string(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"country":   string(country),
		"providers": resp,
	})
}

// filterFromQuery builds a ListFilter from query parameters.
func filterFromQuery(r *http.Request) (payment.ListFilter, error) {
	q := r.URL.Query()
	filter := payment.ListFilter{}

	if s := q.Get("status"); s != "" {
		status := payment.Status(s)
		filter.Status = &status
	}
	if s := q.Get("provider"); s != "" {
		prov := payment.Provider(s)
		filter.Provider = &prov
	}
	if s := q.Get("country"); s != "" {
		country := payment.Country(s)
		filter.Country = &country
	}
	if s := q.Get("direction"); s != "" {
		direction := payment.Direction(s)
		filter.Direction = &direction
	}
	if s := q.Get("min_amount"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.MinAmount = &v
		}
	}
	if s := q.Get("max_amount"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			filter.MaxAmount = &v
		}
	}
	if s := q.Get("created_from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, err
		}
		filter.CreatedFrom = &t
	}
	if s := q.Get("created_to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return filter, err
		}
		filter.CreatedTo = &t
	}
	if s := q.Get("client_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.ClientID = &id
		}
	}
	if s := q.Get("supplier_id"); s != "" {
		if id, err := uuid.Parse(s); err == nil {
			filter.SupplierID = &id
		}
	}
	filter.Reference = q.Get("reference")
	filter.PhoneNumber = q.Get("phone_number")
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))
	filter.SortBy = q.Get("sort_by")
	filter.SortOrder = q.Get("sort_order")

	return filter, nil
}

// parseUUID parses an optional UUID string, returning nil if absent or invalid.
func parseUUID(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
