// Package handler exposes password policy evaluation and
// administration over HTTP. It is a thin layer: decode, delegate,
// encode. Passwords live only in the request body and are never echoed
// into logs or responses.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"passgate/internal/platform/middleware"
	"passgate/internal/policy/models"
	dErrors "passgate/pkg/domain-errors"
	"passgate/pkg/platform/httputil"
	adminmw "passgate/pkg/platform/middleware/admin"
)

// Service defines the policy operations the handler delegates to.
type Service interface {
	Evaluate(ctx context.Context, req models.ValidatePasswordRequest, subject string) (*models.ValidatePasswordResponse, error)
	Requirements(ctx context.Context) *models.RequirementsResponse
	Active(ctx context.Context) *models.PolicyResponse
	Update(ctx context.Context, req models.UpdatePolicyRequest, updatedBy string) (*models.PolicyResponse, error)
}

// Handler handles policy-related endpoints.
type Handler struct {
	logger       *slog.Logger
	policy       Service
	jwtValidator middleware.JWTValidator
	adminToken   string
}

// New creates a new policy Handler.
func New(
	policy Service,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator,
	adminToken string) *Handler {
	return &Handler{
		logger:       logger,
		policy:       policy,
		jwtValidator: jwtValidator,
		adminToken:   adminToken,
	}
}

// Register registers the policy routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	policyRouter := chi.NewRouter()
	policyRouter.Use(middleware.Recovery(h.logger))
	policyRouter.Use(middleware.RequestID)
	policyRouter.Use(middleware.Logger(h.logger))
	policyRouter.Use(middleware.Timeout(10 * time.Second))
	policyRouter.Use(middleware.ContentTypeJSON)

	policyRouter.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		authed.Post("/policy/validate", h.handleValidate)
	})
	policyRouter.Get("/policy/requirements", h.handleRequirements)

	policyRouter.Group(func(admin chi.Router) {
		admin.Use(adminmw.RequireAdminToken(h.adminToken, h.logger))
		admin.Get("/admin/policy", h.handleGetPolicy)
		admin.Put("/admin/policy", h.handleUpdatePolicy)
	})

	r.Mount("/", policyRouter)
}

// handleValidate evaluates a candidate password for the authenticated
// caller.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	subject := middleware.GetSubject(ctx)
	if subject == "" {
		// This should never happen if RequireAuth middleware is configured correctly
		h.logger.ErrorContext(ctx, "subject missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req models.ValidatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid validate request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.policy.Evaluate(ctx, req, subject)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeValidation) || dErrors.Is(err, dErrors.CodeBadRequest) {
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "password evaluation failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "evaluation failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// handleRequirements returns the active policy as a display checklist.
// Unauthenticated so signup forms can render it before login.
func (h *Handler) handleRequirements(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.policy.Requirements(r.Context()))
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.policy.Active(r.Context()))
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req models.UpdatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid update policy request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updatedBy := r.Header.Get("X-Admin-Subject")
	if updatedBy == "" {
		updatedBy = "admin"
	}

	resp, err := h.policy.Update(ctx, req, updatedBy)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInvalidConfig) || dErrors.Is(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "rejected policy update",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update policy",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to update policy"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
