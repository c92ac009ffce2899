package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"amicale-backend/internal/audit"
	"amicale-backend/internal/auth"
	duesapp "amicale-backend/internal/dues/application"
	dues "amicale-backend/internal/dues/domain"
	members "amicale-backend/internal/members/domain"
	"amicale-backend/internal/observability/metrics"
	payments "amicale-backend/internal/payments/domain"
)

// MemberGetter resolves members for statement exports.
type MemberGetter interface {
	Get(ctx context.Context, id string) (*members.Member, error)
}

// PaymentLister returns a member's payment history.
type PaymentLister interface {
	ListByMember(ctx context.Context, memberID string) ([]payments.Payment, error)
}

// ExportHandler serves XLSX and PDF exports.
type ExportHandler struct {
	billing     *duesapp.BillingService
	directory   duesapp.MemberDirectory
	memberRepo  MemberGetter
	payments    PaymentLister
	currency    string
	auditLogger audit.Logger
}

// NewExportHandler constructs a handler. payments may be nil.
func NewExportHandler(
	billing *duesapp.BillingService,
	directory duesapp.MemberDirectory,
	memberRepo MemberGetter,
	paymentLister PaymentLister,
	currency string,
	auditLogger audit.Logger,
) (*ExportHandler, error) {
	if billing == nil {
		return nil, errors.New("export handler: nil billing service")
	}
	if directory == nil {
		return nil, errors.New("export handler: nil member directory")
	}
	if memberRepo == nil {
		return nil, errors.New("export handler: nil member getter")
	}
	return &ExportHandler{
		billing:     billing,
		directory:   directory,
		memberRepo:  memberRepo,
		payments:    paymentLister,
		currency:    currency,
		auditLogger: auditLogger,
	}, nil
}

// ServeHTTP handles export routes under /api/v1/exports.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/exports/dues.xlsx":
		h.handleDuesXLSX(w, r)
	case "/api/v1/exports/statement.pdf":
		h.handleStatementPDF(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ExportHandler) handleDuesXLSX(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("xlsx", result, time.Since(start))
	}()

	period := r.URL.Query().Get("period")
	parsed, err := dues.ParsePeriod(period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	items, err := h.billing.ListLineItems(r.Context(), period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	list, err := h.billing.DuesByPeriod(r.Context(), period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}

	data, err := BuildPeriodDuesXLSX(parsed, h.currency, items, list, h.nameResolver(r.Context()))
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "dues.export", period, map[string]any{"format": "xlsx"})
}

func (h *ExportHandler) handleStatementPDF(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport("pdf", result, time.Since(start))
	}()

	memberID := r.URL.Query().Get("member_id")
	if memberID == "" {
		result = metrics.ResultError
		http.Error(w, "member_id required", http.StatusBadRequest)
		return
	}
	member, err := h.memberRepo.Get(r.Context(), memberID)
	if err != nil {
		result = metrics.ResultError
		if errors.Is(err, members.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		respondServiceError(w, err)
		return
	}
	list, err := h.billing.DuesByMember(r.Context(), memberID)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	var history []payments.Payment
	if h.payments != nil {
		history, err = h.payments.ListByMember(r.Context(), memberID)
		if err != nil {
			result = metrics.ResultError
			respondServiceError(w, err)
			return
		}
	}

	data, err := BuildMemberStatementPDF(member, h.currency, list, history)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, "statement.export", memberID, map[string]any{"format": "pdf"})
}

func (h *ExportHandler) nameResolver(ctx context.Context) dues.MemberNameResolver {
	all, err := h.directory.ListAll(ctx)
	if err != nil {
		return nil
	}
	names := make(map[string]string, len(all))
	for _, member := range all {
		names[member.ID] = member.FullName
	}
	return func(memberID string) string { return names[memberID] }
}

func (h *ExportHandler) logAudit(r *http.Request, action, resourceID string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "export",
		ResourceID:   resourceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
