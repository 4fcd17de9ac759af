package domain

import "context"

// ServicePort defines the service contract for publishing notes
type ServicePort interface {
	PublishNote(ctx context.Context, rawCookie string, in PublishInput) (PublishResult, error)
	AuditSummary(ctx context.Context, limit int) (AuditSummary, error)
}
