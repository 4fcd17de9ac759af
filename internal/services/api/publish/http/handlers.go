// Package http provides http transport for publishing notes
package http

import (
	"errors"
	stdhttp "net/http"
	"strconv"

	"noterelay/internal/modkit/httpkit"
	phttp "noterelay/internal/platform/net/http"
	"noterelay/internal/platform/net/http/bind"
	"noterelay/internal/services/api/publish/domain"
	svc "noterelay/internal/services/api/publish/service"
)

// CookieHeader carries the caller's platform session
const CookieHeader = "X-XHS-Cookie"

// Register mounts publish endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	r.Post("/note", h.publish)
	r.Get("/audit", h.audit)
}

type handlers struct{ svc svc.Service }

// note writes the caller-facing contract directly instead of the
// internal envelope so external automations can rely on a stable shape

// @Summary Publish an image note
// @Tags Publish
// @Accept json
// @Produce json
// @Param X-XHS-Cookie header string true "Platform session cookie"
// @Param payload body domain.PublishInput true "Note"
// @Success 200 {object} domain.PublishResult "published"
// @Failure 400 {object} domain.Failure "bad input"
// @Failure 401 {object} domain.Failure "invalid credential"
// @Failure 500 {object} domain.Failure "publish failed"
// @Router /publish/note [post]
func (h *handlers) publish(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	rawCookie := r.Header.Get(CookieHeader)
	if rawCookie == "" {
		phttp.JSON(w, stdhttp.StatusBadRequest, domain.Failure{
			Error:     CookieHeader + " header is required",
			ErrorType: domain.KindValidation,
		})
		return
	}

	in, err := bind.ParseJSON[domain.PublishInput](r)
	if err != nil {
		phttp.JSON(w, stdhttp.StatusBadRequest, domain.Failure{
			Error:     err.Error(),
			ErrorType: domain.KindValidation,
		})
		return
	}

	res, err := h.svc.PublishNote(r.Context(), rawCookie, in)
	if err != nil {
		var pe *domain.PublishError
		if errors.As(err, &pe) {
			phttp.JSON(w, pe.Status, pe.Wire())
			return
		}
		phttp.JSON(w, stdhttp.StatusInternalServerError, domain.Failure{Error: err.Error()})
		return
	}
	phttp.JSON(w, stdhttp.StatusOK, res)
}

const (
	auditDefaultLimit = 20
	auditMaxLimit     = 100
)

// @Summary Recent publish outcomes
// @Tags Publish
// @Produce json
// @Param limit query int false "Max entries to return" default(20)
// @Success 200 {object} phttp.Envelope{data=domain.AuditSummary} "audit trail"
// @Failure 400 {object} domain.Failure "bad limit"
// @Failure 500 {object} domain.Failure "auditing disabled or unavailable"
// @Router /publish/audit [get]
func (h *handlers) audit(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	limit := auditDefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			phttp.JSON(w, stdhttp.StatusBadRequest, domain.Failure{
				Error:     "limit must be a positive integer",
				ErrorType: domain.KindValidation,
			})
			return
		}
		limit = n
	}
	if limit > auditMaxLimit {
		limit = auditMaxLimit
	}

	sum, err := h.svc.AuditSummary(r.Context(), limit)
	if err != nil {
		var pe *domain.PublishError
		if errors.As(err, &pe) {
			phttp.JSON(w, pe.Status, pe.Wire())
			return
		}
		phttp.JSON(w, stdhttp.StatusInternalServerError, domain.Failure{Error: err.Error()})
		return
	}
	phttp.RespondOK(w, r, sum)
}
