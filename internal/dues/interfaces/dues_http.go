package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"amicale-backend/internal/audit"
	"amicale-backend/internal/auth"
	duesapp "amicale-backend/internal/dues/application"
	dues "amicale-backend/internal/dues/domain"
)

// DuesHandler handles the billing, dues and reconciliation APIs.
type DuesHandler struct {
	billing     *duesapp.BillingService
	reconciler  *duesapp.ReconcileService
	auditLogger audit.Logger
}

// NewDuesHandler constructs a handler.
func NewDuesHandler(billing *duesapp.BillingService, reconciler *duesapp.ReconcileService, auditLogger audit.Logger) (*DuesHandler, error) {
	if billing == nil {
		return nil, errors.New("dues handler: nil billing service")
	}
	if reconciler == nil {
		return nil, errors.New("dues handler: nil reconcile service")
	}
	return &DuesHandler{billing: billing, reconciler: reconciler, auditLogger: auditLogger}, nil
}

// ServeHTTP handles dues routes under /api/v1.
func (h *DuesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/line-items" && r.Method == http.MethodGet:
		h.handleListLineItems(w, r)
	case path == "/api/v1/line-items" && r.Method == http.MethodPost:
		h.handlePlanLineItem(w, r)
	case strings.HasPrefix(path, "/api/v1/line-items/") && r.Method == http.MethodDelete:
		h.handleRemoveLineItem(w, r, strings.TrimPrefix(path, "/api/v1/line-items/"))
	case path == "/api/v1/dues" && r.Method == http.MethodGet:
		h.handleListDues(w, r)
	case path == "/api/v1/periods/bill" && r.Method == http.MethodPost:
		h.handleBillPeriod(w, r)
	case path == "/api/v1/reconcile" && r.Method == http.MethodPost:
		h.handleReconcile(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type lineItemResponse struct {
	ID            string          `json:"id"`
	Period        string          `json:"period"`
	Kind          string          `json:"kind"`
	Label         string          `json:"label"`
	Amount        decimal.Decimal `json:"amount"`
	BeneficiaryID string          `json:"beneficiary_id,omitempty"`
}

func toLineItemResponse(item dues.LineItem) lineItemResponse {
	return lineItemResponse{
		ID:            item.ID,
		Period:        item.Period.String(),
		Kind:          string(item.Kind),
		Label:         item.Label,
		Amount:        item.Amount,
		BeneficiaryID: item.BeneficiaryID,
	}
}

func (h *DuesHandler) handleListLineItems(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	items, err := h.billing.ListLineItems(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]lineItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toLineItemResponse(item))
	}
	writeJSON(w, resp)
}

func (h *DuesHandler) handlePlanLineItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period        string          `json:"period"`
		Kind          string          `json:"kind"`
		Label         string          `json:"label"`
		Amount        decimal.Decimal `json:"amount"`
		BeneficiaryID string          `json:"beneficiary_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var item *dues.LineItem
	var err error
	switch dues.LineKind(req.Kind) {
	case dues.LineKindFlatFee:
		item, err = h.billing.PlanFlatFee(r.Context(), req.Period, req.Label, req.Amount)
	case dues.LineKindBenefit:
		item, err = h.billing.PlanBenefit(r.Context(), req.Period, req.Label, req.Amount, req.BeneficiaryID)
	default:
		http.Error(w, "unknown line item kind", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toLineItemResponse(*item))
	h.logAudit(r, "line_item.plan", "line_item", item.ID, item.Period.String(), map[string]any{
		"kind":   string(item.Kind),
		"label":  item.Label,
		"amount": item.Amount.StringFixed(2),
	})
}

func (h *DuesHandler) handleRemoveLineItem(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.billing.RemoveLineItem(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.logAudit(r, "line_item.remove", "line_item", id, "", nil)
}

type dueResponse struct {
	ID              string          `json:"id"`
	MemberID        string          `json:"member_id"`
	Period          string          `json:"period"`
	ExpectedAmount  decimal.Decimal `json:"expected_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Status          string          `json:"status"`
	Description     string          `json:"description"`
}

func toDueResponse(due dues.MemberDue) dueResponse {
	return dueResponse{
		ID:              due.ID,
		MemberID:        due.MemberID,
		Period:          due.Period.String(),
		ExpectedAmount:  due.ExpectedAmount,
		PaidAmount:      due.PaidAmount,
		RemainingAmount: due.RemainingAmount,
		Status:          string(due.Status),
		Description:     due.Description,
	}
}

func (h *DuesHandler) handleListDues(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	memberID := r.URL.Query().Get("member_id")

	var list []dues.MemberDue
	var err error
	switch {
	case period != "":
		list, err = h.billing.DuesByPeriod(r.Context(), period)
	case memberID != "":
		list, err = h.billing.DuesByMember(r.Context(), memberID)
	default:
		http.Error(w, "period or member_id required", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	resp := make([]dueResponse, 0, len(list))
	for _, due := range list {
		resp = append(resp, toDueResponse(due))
	}
	writeJSON(w, resp)
}

func (h *DuesHandler) handleBillPeriod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	created, err := h.billing.BillPeriod(r.Context(), req.Period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"period": req.Period, "created": created})
	h.logAudit(r, "period.bill", "period", req.Period, req.Period, map[string]any{
		"created": created,
	})
}

func (h *DuesHandler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
		DryRun bool   `json:"dry_run"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	report, err := h.reconciler.Run(r.Context(), req.Period, req.DryRun)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, report)
	if !req.DryRun {
		h.logAudit(r, "dues.reconcile", "reconciliation", "", req.Period, map[string]any{
			"checked":         report.Checked,
			"updated":         report.Updated,
			"errored":         report.Errored,
			"periods_skipped": report.PeriodsSkipped,
		})
	}
}

func (h *DuesHandler) logAudit(r *http.Request, action, resourceType, resourceID, period string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	var payload json.RawMessage
	if meta != nil {
		payload, _ = json.Marshal(meta)
	}
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Period:       period,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, dues.ErrLineItemNotFound), errors.Is(err, dues.ErrDueNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, dues.ErrMissingFlatFee), errors.Is(err, dues.ErrDuplicateFlatFee):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, dues.ErrInvalidPeriod),
		errors.Is(err, dues.ErrEmptyLabel),
		errors.Is(err, dues.ErrNonPositiveAmount),
		errors.Is(err, dues.ErrEmptyMemberID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
