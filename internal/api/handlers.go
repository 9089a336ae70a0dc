// Package api exposes the plan and export endpoints over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/safeplate/haccp/internal/auth"
	"github.com/safeplate/haccp/internal/export"
	"github.com/safeplate/haccp/internal/plan"
	"github.com/safeplate/haccp/internal/rules"
)

type Handler struct {
	Auth      auth.Authenticator
	Plans     plan.Store
	Exports   *export.Service
	Standards rules.LimitStandards
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/plans", func(r chi.Router) {
		r.Post("/", h.CreatePlan)
		r.Route("/{planID}", func(r chi.Router) {
			r.Get("/", h.GetPlan)
			r.Put("/", h.UpdatePlan)
			r.Post("/evaluate", h.EvaluatePlan)
			r.Post("/verdict", h.PutVerdict)
			r.Post("/payment", h.SetPayment)
			r.Get("/export.pdf", h.ExportPDF)
			r.Get("/export.docx", h.ExportDOCX)
			r.Get("/preview.pdf", h.PreviewPDF)
		})
	})
	return r
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	var p plan.Plan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	p.ID = uuid.NewString()
	p.OwnerSubject = claims.Subject
	if p.PaymentStatus == "" {
		p.PaymentStatus = plan.PaymentUnpaid
	}
	p.FullPlan.Validation = nil

	saved, err := h.Plans.PutPlan(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	existing, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var p plan.Plan
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	// Identity, ownership, entitlement, and the reviewer verdict are not
	// client-writable through this endpoint.
	p.ID = existing.ID
	p.OwnerSubject = existing.OwnerSubject
	p.PaymentStatus = existing.PaymentStatus
	p.FullPlan.Validation = existing.FullPlan.Validation

	saved, err := h.Plans.PutPlan(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) EvaluatePlan(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	report := plan.Evaluate(&p, h.Standards)
	saved, err := h.Plans.PutPlan(p)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan":         saved,
		"report":       report,
		"limit_issues": plan.LimitIssues(saved, h.Standards),
	})
}

func (h *Handler) PutVerdict(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if !claims.Admin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "verdicts require a reviewer identity"})
		return
	}

	planID := chi.URLParam(r, "planID")
	var verdict plan.ValidationVerdict
	if err := json.NewDecoder(r.Body).Decode(&verdict); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.Plans.PutValidation(planID, &verdict); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"plan_id": planID, "status": "verdict recorded"})
}

func (h *Handler) SetPayment(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}

	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.PaymentStatus != plan.PaymentPaid && req.PaymentStatus != plan.PaymentUnpaid {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("payment_status must be %q or %q", plan.PaymentPaid, plan.PaymentUnpaid),
		})
		return
	}
	if err := h.Plans.SetPaymentStatus(p.ID, req.PaymentStatus); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"plan_id": p.ID, "payment_status": req.PaymentStatus})
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	artifact, err := h.Exports.ExportPDF(r.Context(), p.ID, r.URL.Query().Get("locale"), false)
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

func (h *Handler) ExportDOCX(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	// DOCX has no watermarked form, so it is never served to unpaid plans.
	if !p.Entitled() {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "docx export requires a paid plan"})
		return
	}
	artifact, err := h.Exports.ExportDOCX(r.Context(), p.ID, r.URL.Query().Get("locale"))
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

func (h *Handler) PreviewPDF(w http.ResponseWriter, r *http.Request) {
	p, _, ok := h.loadOwned(w, r)
	if !ok {
		return
	}
	artifact, err := h.Exports.ExportPDF(r.Context(), p.ID, r.URL.Query().Get("locale"), true)
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeArtifact(w, artifact)
}

// loadOwned authenticates the request and loads the plan, requiring the
// caller to be the plan's owner or an admin.
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request) (plan.Plan, auth.Claims, bool) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return plan.Plan{}, auth.Claims{}, false
	}

	planID := chi.URLParam(r, "planID")
	p, found := h.Plans.GetPlan(planID)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return plan.Plan{}, auth.Claims{}, false
	}
	if p.OwnerSubject != claims.Subject && !claims.Admin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not the plan owner"})
		return plan.Plan{}, auth.Claims{}, false
	}
	return p, claims, true
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	claims, err := h.Auth.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return auth.Claims{}, false
	}
	return claims, true
}

func writeExportError(w http.ResponseWriter, err error) {
	var blocked *export.BlockedError
	switch {
	case errors.Is(err, export.ErrPlanNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
	case errors.As(err, &blocked):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": blocked.Reason})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func writeArtifact(w http.ResponseWriter, artifact export.Artifact) {
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	if artifact.FromCache {
		w.Header().Set("X-Artifact-Cache", "hit")
	} else {
		w.Header().Set("X-Artifact-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Bytes)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
