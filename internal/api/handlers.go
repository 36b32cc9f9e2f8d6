// Package api exposes HTTP handlers for the check-in service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"example.com/checkin/internal/auth"
	"example.com/checkin/internal/domain"
	"example.com/checkin/internal/geo"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/gyms", h.gyms)
	mux.HandleFunc("/v1/gyms/search", h.searchGyms)
	mux.HandleFunc("/v1/gyms/nearby", h.nearbyGyms)
	mux.HandleFunc("/v1/gyms/", h.gymSubresource)
	mux.HandleFunc("/v1/check-ins/", h.checkInSubresource)
	mux.HandleFunc("/v1/check-ins/history", h.checkInHistory)
	mux.HandleFunc("/v1/check-ins/metrics", h.checkInMetrics)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) gyms(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createGym(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// gymSubresource handles /v1/gyms/{id} and /v1/gyms/{id}/check-ins.
func (h *Handler) gymSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/gyms/")
	gymID, sub, found := strings.Cut(rest, "/")
	if gymID == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}

	if !found || sub == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
			return
		}
		h.getGym(w, r, gymID)
		return
	}

	if sub != "check-ins" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.createCheckIn(w, r, gymID)
}

func (h *Handler) getGym(w http.ResponseWriter, r *http.Request, gymID string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeGymsRead) && !claims.HasScope(auth.ScopeGymsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope gyms:read required")
		return
	}

	gym, err := h.service.GetGym(r.Context(), gymID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGymView(*gym))
}

// checkInSubresource handles /v1/check-ins/{id}/validate.
func (h *Handler) checkInSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/check-ins/")
	checkInID, sub, found := strings.Cut(rest, "/")
	if checkInID == "" || !found || sub != "validate" {
		writeError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.validateCheckIn(w, r, checkInID)
}

func (h *Handler) createGym(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeGymsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope gyms:write required")
		return
	}

	var req CreateGymRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	gym, err := h.service.CreateGym(r.Context(), domain.CreateGymInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Phone:       req.Phone,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toGymView(*gym))
}

func (h *Handler) searchGyms(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeGymsRead) && !claims.HasScope(auth.ScopeGymsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope gyms:read required")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing query parameter")
		return
	}

	gyms, err := h.service.SearchGyms(r.Context(), query, pageParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, GymListResponse{Gyms: toGymViews(gyms)})
}

func (h *Handler) nearbyGyms(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeGymsRead) && !claims.HasScope(auth.ScopeGymsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope gyms:read required")
		return
	}

	latitude, err := strconv.ParseFloat(r.URL.Query().Get("latitude"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid latitude parameter")
		return
	}
	longitude, err := strconv.ParseFloat(r.URL.Query().Get("longitude"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid longitude parameter")
		return
	}

	gyms, err := h.service.NearbyGyms(r.Context(), geo.Coordinate{Latitude: latitude, Longitude: longitude})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, GymListResponse{Gyms: toGymViews(gyms)})
}

func (h *Handler) createCheckIn(w http.ResponseWriter, r *http.Request, gymID string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeCheckInsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope checkins:write required")
		return
	}

	var req CreateCheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	checkIn, err := h.service.CheckIn(r.Context(), domain.CheckInInput{
		UserID:        claims.Subject,
		GymID:         gymID,
		UserLatitude:  req.Latitude,
		UserLongitude: req.Longitude,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCheckInView(*checkIn))
}

func (h *Handler) validateCheckIn(w http.ResponseWriter, r *http.Request, checkInID string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeCheckInsValidate) {
		writeError(w, http.StatusForbidden, "forbidden", "scope checkins:validate required")
		return
	}

	checkIn, err := h.service.ValidateCheckIn(r.Context(), checkInID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCheckInView(*checkIn))
}

func (h *Handler) checkInHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeCheckInsRead) && !claims.HasScope(auth.ScopeCheckInsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope checkins:read required")
		return
	}

	checkIns, err := h.service.CheckInHistory(r.Context(), claims.Subject, pageParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]CheckInView, 0, len(checkIns))
	for _, checkIn := range checkIns {
		items = append(items, toCheckInView(checkIn))
	}
	writeJSON(w, http.StatusOK, CheckInListResponse{CheckIns: items})
}

func (h *Handler) checkInMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeCheckInsRead) && !claims.HasScope(auth.ScopeCheckInsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope checkins:read required")
		return
	}

	count, err := h.service.CheckInCount(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CheckInMetricsResponse{CheckInsCount: count})
}

func pageParam(r *http.Request) int {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return page
}

// CreateGymRequest is the payload for POST /v1/gyms.
type CreateGymRequest struct {
	ID          string          `json:"id,omitempty"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Phone       *string         `json:"phone"`
	Latitude    decimal.Decimal `json:"latitude"`
	Longitude   decimal.Decimal `json:"longitude"`
}

// Validate ensures request correctness.
func (r CreateGymRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if r.Latitude.LessThan(decimal.NewFromInt(-90)) || r.Latitude.GreaterThan(decimal.NewFromInt(90)) {
		return errors.New("latitude must be between -90 and 90")
	}
	if r.Longitude.LessThan(decimal.NewFromInt(-180)) || r.Longitude.GreaterThan(decimal.NewFromInt(180)) {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// CreateCheckInRequest is the payload for POST /v1/gyms/{id}/check-ins.
type CreateCheckInRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GymView exposes gym details. Coordinates are serialized as decimal strings.
type GymView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Latitude    string    `json:"latitude"`
	Longitude   string    `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// GymListResponse packages gym search results.
type GymListResponse struct {
	Gyms []GymView `json:"gyms"`
}

// CheckInView exposes check-in details.
type CheckInView struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	GymID       string     `json:"gym_id"`
	CreatedAt   time.Time  `json:"created_at"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

// CheckInListResponse packages history results.
type CheckInListResponse struct {
	CheckIns []CheckInView `json:"check_ins"`
}

// CheckInMetricsResponse carries the user's lifetime check-in total.
type CheckInMetricsResponse struct {
	CheckInsCount int `json:"check_ins_count"`
}

// writeDomainError maps domain sentinels to distinct HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGymNotFound), errors.Is(err, domain.ErrCheckInNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrMaxDistanceExceeded):
		writeError(w, http.StatusBadRequest, "max_distance_exceeded", err.Error())
	case errors.Is(err, domain.ErrDailyCheckInLimit):
		writeError(w, http.StatusConflict, "daily_limit_reached", err.Error())
	case errors.Is(err, domain.ErrLateCheckInValidation):
		writeError(w, http.StatusUnprocessableEntity, "late_validation", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toGymView(gym domain.Gym) GymView {
	return GymView{
		ID:          gym.ID,
		Title:       gym.Title,
		Description: gym.Description,
		Phone:       gym.Phone,
		Latitude:    gym.Latitude.String(),
		Longitude:   gym.Longitude.String(),
		CreatedAt:   gym.CreatedAt,
	}
}

func toGymViews(gyms []domain.Gym) []GymView {
	views := make([]GymView, 0, len(gyms))
	for _, gym := range gyms {
		views = append(views, toGymView(gym))
	}
	return views
}

func toCheckInView(checkIn domain.CheckIn) CheckInView {
	return CheckInView{
		ID:          checkIn.ID,
		UserID:      checkIn.UserID,
		GymID:       checkIn.GymID,
		CreatedAt:   checkIn.CreatedAt,
		ValidatedAt: checkIn.ValidatedAt,
	}
}
