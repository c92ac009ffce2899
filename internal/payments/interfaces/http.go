package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"amicale-backend/internal/audit"
	"amicale-backend/internal/auth"
	dues "amicale-backend/internal/dues/domain"
	paymentsapp "amicale-backend/internal/payments/application"
	payments "amicale-backend/internal/payments/domain"
)

// PaymentHandler handles payment recording and history.
type PaymentHandler struct {
	service     *paymentsapp.Service
	auditLogger audit.Logger
}

// NewPaymentHandler constructs a handler.
func NewPaymentHandler(service *paymentsapp.Service, auditLogger audit.Logger) (*PaymentHandler, error) {
	if service == nil {
		return nil, errors.New("payment handler: nil service")
	}
	return &PaymentHandler{service: service, auditLogger: auditLogger}, nil
}

// ServeHTTP handles /api/v1/payments.
func (h *PaymentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/v1/payments" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.handleRecord(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type paymentResponse struct {
	ID        string          `json:"id"`
	MemberID  string          `json:"member_id"`
	Period    string          `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func toPaymentResponse(payment payments.Payment) paymentResponse {
	return paymentResponse{
		ID:        payment.ID,
		MemberID:  payment.MemberID,
		Period:    payment.Period.String(),
		Amount:    payment.Amount,
		Method:    payment.Method,
		Reference: payment.Reference,
		CreatedAt: payment.CreatedAt.Format("2006-01-02"),
	}
}

func (h *PaymentHandler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID  string          `json:"member_id"`
		Period    string          `json:"period"`
		Amount    decimal.Decimal `json:"amount"`
		Method    string          `json:"method"`
		Reference string          `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	period, err := dues.ParsePeriod(req.Period)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	recordedBy := auth.SubjectFromContext(r.Context())
	payment, due, err := h.service.Record(r.Context(), req.MemberID, period, req.Amount, req.Method, req.Reference, recordedBy)
	if err != nil {
		respondPaymentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"payment": toPaymentResponse(*payment),
		"due": map[string]any{
			"paid_amount":      due.PaidAmount,
			"remaining_amount": due.RemainingAmount,
			"status":           string(due.Status),
		},
	})
	h.logAudit(r, payment, due)
}

func (h *PaymentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	memberID := r.URL.Query().Get("member_id")
	period := r.URL.Query().Get("period")

	var list []payments.Payment
	var err error
	switch {
	case memberID != "":
		list, err = h.service.ListByMember(r.Context(), memberID)
	case period != "":
		parsed, perr := dues.ParsePeriod(period)
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		list, err = h.service.ListByPeriod(r.Context(), parsed)
	default:
		http.Error(w, "member_id or period required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondPaymentError(w, err)
		return
	}
	resp := make([]paymentResponse, 0, len(list))
	for _, payment := range list {
		resp = append(resp, toPaymentResponse(payment))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *PaymentHandler) logAudit(r *http.Request, payment *payments.Payment, due *dues.MemberDue) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"amount": payment.Amount.StringFixed(2),
		"method": payment.Method,
		"status": string(due.Status),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       "payment.record",
		ResourceType: "payment",
		ResourceID:   payment.ID,
		Period:       payment.Period.String(),
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondPaymentError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, paymentsapp.ErrNoDue):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, payments.ErrInvalidMethod),
		errors.Is(err, payments.ErrNonPositiveAmount),
		errors.Is(err, payments.ErrEmptyMemberID),
		errors.Is(err, dues.ErrInvalidPeriod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
