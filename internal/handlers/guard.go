package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/authguard/internal/detection"
	"github.com/BradenHooton/authguard/internal/models"
	"github.com/BradenHooton/authguard/internal/ratelimit"
	"github.com/BradenHooton/authguard/internal/services"
	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// maxIdentifierLen bounds identifiers accepted in URLs
const maxIdentifierLen = 256

// GuardServiceInterface defines the login guard operations used by the handlers
type GuardServiceInterface interface {
	Precheck(ctx context.Context, lc services.LoginContext) (*services.Verdict, error)
	RecordOutcome(ctx context.Context, lc services.LoginContext, success bool) error
	Decision(ctx context.Context, identifier string) ratelimit.Decision
	ResetIdentifier(ctx context.Context, identifier string)
	Detect(attempts []models.AttemptRecord, window time.Duration) detection.Flags
}

// GuardHandler serves the login guard endpoints
type GuardHandler struct {
	service  GuardServiceInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewGuardHandler creates a new GuardHandler
func NewGuardHandler(service GuardServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *GuardHandler {
	return &GuardHandler{
		service:  service,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Precheck decides whether a login may be processed
// @Router /v1/login/precheck [post]
func (h *GuardHandler) Precheck(w http.ResponseWriter, r *http.Request) {
	var req PrecheckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	verdict, err := h.service.Precheck(r.Context(), services.LoginContext{
		Username:   req.Username,
		Password:   req.Password,
		IPAddress:  pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:  r.UserAgent(),
		Attributes: req.Attributes,
	})
	if err != nil {
		if verdict == nil {
			verdict = &services.Verdict{}
		}
		switch {
		case errors.Is(err, models.ErrInvalidLoginInput):
			pkghttp.WriteValidationError(w, verdict.Errors)
		case errors.Is(err, models.ErrRateLimitExceeded):
			pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.", verdict.TimeToWait)
		default:
			h.logger.Error("login precheck failed", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, verdict)
}

// Outcome records the result of a credential check
// @Router /v1/login/outcome [post]
func (h *GuardHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	lc := services.LoginContext{
		Username:  req.Username,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.UserAgent(),
	}
	if err := h.service.RecordOutcome(r.Context(), lc, *req.Success); err != nil {
		h.logger.Error("failed to record login outcome", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RateLimitStatus reports the limiter decision for an identifier
// @Router /v1/ratelimit/{identifier} [get]
func (h *GuardHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	identifier, ok := identifierParam(w, r)
	if !ok {
		return
	}

	decision := h.service.Decision(r.Context(), identifier)
	pkghttp.WriteJSON(w, http.StatusOK, DecisionResponse{
		Identifier:        identifier,
		Allowed:           decision.Allowed,
		AttemptsLeft:      decision.AttemptsLeft,
		RetryAfterSeconds: pkghttp.RetryAfterSeconds(decision.TimeToWait),
	})
}

// RateLimitReset forgives every recorded attempt for an identifier
// @Router /v1/ratelimit/{identifier} [delete]
func (h *GuardHandler) RateLimitReset(w http.ResponseWriter, r *http.Request) {
	identifier, ok := identifierParam(w, r)
	if !ok {
		return
	}

	h.service.ResetIdentifier(r.Context(), identifier)
	w.WriteHeader(http.StatusNoContent)
}

// Detect runs suspicious activity detection over a supplied history
// @Router /v1/activity/detect [post]
func (h *GuardHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var window time.Duration
	if req.Window != "" {
		d, err := time.ParseDuration(req.Window)
		if err != nil || d <= 0 {
			pkghttp.WriteBadRequest(w, "window must be a positive duration such as 30m")
			return
		}
		window = d
	}

	pkghttp.WriteJSON(w, http.StatusOK, h.service.Detect(req.Attempts, window))
}

func identifierParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	identifier := chi.URLParam(r, "identifier")
	if identifier == "" || len(identifier) > maxIdentifierLen {
		pkghttp.WriteBadRequest(w, "invalid identifier")
		return "", false
	}
	return identifier, true
}
