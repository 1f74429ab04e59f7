package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/http/middleware"
	"github.com/xavierca1/sales-operator/internal/usecase"
)

type LeadHandler struct {
	Leads       *usecase.LeadService
	rateLimiter *RateLimiter
}

// NewLeadHandler limits lead creation to perMinute requests per client IP.
func NewLeadHandler(leads *usecase.LeadService, perMinute int) *LeadHandler {
	return &LeadHandler{
		Leads:       leads,
		rateLimiter: NewRateLimiter(perMinute, time.Minute),
	}
}

type updateLeadStatusRequest struct {
	Status string `json:"status"`
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
		return
	}

	var in entity.NewLeadInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.Leads.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordLeadCreated("http")
	writeJSON(w, http.StatusCreated, lead)
}

func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.Leads.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// List serves GET /leads?status=&order_by=&asc=&limit=
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := entity.LeadFilter{
		Status:  queryString(r, "status"),
		OrderBy: entity.LeadOrder(r.URL.Query().Get("order_by")),
	}

	var err error
	if filter.Ascending, err = queryBool(r, "asc"); err != nil {
		writeError(w, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, err)
		return
	}

	leads, err := h.Leads.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(leads))
}

func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateLeadStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	lead, err := h.Leads.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *LeadHandler) FindByEmail(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Leads.FindByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(leads))
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimiter is a fixed-window counter per client.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup()
	return rl
}

// Allow reports whether ip may make another request. A limit of zero or
// less disables limiting.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
