package module

import (
	"context"

	publishdom "noterelay/internal/services/api/publish/domain"
	publishsvc "noterelay/internal/services/api/publish/service"
)

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// adaptPublishPort adapts the publish service to the domain port interface
type adaptPublishPort struct{ svc publishsvc.Service }

// PublishNote implements the domain ServicePort interface
func (a adaptPublishPort) PublishNote(
	ctx context.Context, rawCookie string, in publishdom.PublishInput,
) (publishdom.PublishResult, error) {
	return a.svc.PublishNote(ctx, rawCookie, in)
}

// AuditSummary implements the domain ServicePort interface
func (a adaptPublishPort) AuditSummary(ctx context.Context, limit int) (publishdom.AuditSummary, error) {
	return a.svc.AuditSummary(ctx, limit)
}
