package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"amicale-backend/internal/audit"
	"amicale-backend/internal/auth"
	membersapp "amicale-backend/internal/members/application"
	members "amicale-backend/internal/members/domain"
)

// MemberHandler handles member registration, listing and login.
type MemberHandler struct {
	service     *membersapp.Service
	jwtSecret   []byte
	tokenTTL    time.Duration
	auditLogger audit.Logger
}

// NewMemberHandler constructs a handler.
func NewMemberHandler(service *membersapp.Service, jwtSecret []byte, tokenTTL time.Duration, auditLogger audit.Logger) (*MemberHandler, error) {
	if service == nil {
		return nil, errors.New("member handler: nil service")
	}
	if len(jwtSecret) == 0 {
		return nil, errors.New("member handler: empty jwt secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &MemberHandler{service: service, jwtSecret: jwtSecret, tokenTTL: tokenTTL, auditLogger: auditLogger}, nil
}

// ServeHTTP handles member routes under /api/v1.
func (h *MemberHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/auth/login" && r.Method == http.MethodPost:
		h.handleLogin(w, r)
	case path == "/api/v1/members" && r.Method == http.MethodPost:
		h.handleRegister(w, r)
	case path == "/api/v1/members" && r.Method == http.MethodGet:
		h.handleList(w, r)
	case strings.HasPrefix(path, "/api/v1/members/"):
		h.handleByID(w, r, strings.TrimPrefix(path, "/api/v1/members/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type memberResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	JoinedAt string `json:"joined_at"`
}

func toMemberResponse(member *members.Member) memberResponse {
	return memberResponse{
		ID:       member.ID,
		FullName: member.FullName,
		Email:    member.Email,
		Role:     member.Role,
		Status:   member.Status,
		JoinedAt: member.JoinedAt.Format("2006-01-02"),
	}
}

func (h *MemberHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	member, err := h.service.Authenticate(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	role, _ := auth.NormalizeRole(member.Role)
	token, err := auth.MintJWT(member.ID, role, h.jwtSecret, h.tokenTTL)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":  token,
		"member": toMemberResponse(member),
	})
}

func (h *MemberHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	member, err := h.service.Register(r.Context(), req.FullName, req.Email, req.Password, req.Role)
	if err != nil {
		respondMemberError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toMemberResponse(member))
	h.logAudit(r, "member.register", member.ID, map[string]any{"role": member.Role})
}

func (h *MemberHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		respondMemberError(w, err)
		return
	}
	resp := make([]memberResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toMemberResponse(&list[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *MemberHandler) handleByID(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		member, err := h.service.Get(r.Context(), id)
		if err != nil {
			respondMemberError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toMemberResponse(member))
	case http.MethodDelete:
		if err := h.service.Deactivate(r.Context(), id); err != nil {
			respondMemberError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		h.logAudit(r, "member.deactivate", id, nil)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *MemberHandler) logAudit(r *http.Request, action, memberID string, meta map[string]any) {
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
		ResourceType: "member",
		ResourceID:   memberID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func respondMemberError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, members.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, members.ErrEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, members.ErrEmptyName),
		errors.Is(err, members.ErrInvalidEmail),
		errors.Is(err, members.ErrWeakPassword),
		errors.Is(err, members.ErrInvalidRole):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
