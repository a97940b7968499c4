package services

import (
	"context"
	"strconv"

	"github.com/DaniDrummondDev/condominium-events-manager-api-sub002/internal/models"
	pkglogger "github.com/DaniDrummondDev/condominium-events-manager-api-sub002/pkg/logger"
)

// EventDispatcher receives security events emitted by the auth flows.
// Dispatch must not block; a failing sink never fails the operation that
// emitted the event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event models.Event)
}

// AuditDispatcher is the default event sink: every security event becomes a
// structured audit log entry.
type AuditDispatcher struct {
	audit *pkglogger.AuditLogger
}

func NewAuditDispatcher(audit *pkglogger.AuditLogger) *AuditDispatcher {
	return &AuditDispatcher{audit: audit}
}

func (d *AuditDispatcher) Dispatch(ctx context.Context, event models.Event) {
	entry := pkglogger.AuditEvent{EventType: event.EventName()}

	switch e := event.(type) {
	case models.LoginFailed:
		entry.Success = false
		entry.FailureReason = e.Reason
		entry.IPAddress = e.IPAddress
		entry.Metadata = map[string]string{"failed_attempts": strconv.Itoa(e.FailedAttempts)}
	case models.LoginSucceeded:
		entry.Success = true
		entry.UserID = e.UserID
		entry.TenantID = deref(e.TenantID)
		entry.IPAddress = e.IPAddress
		entry.UserAgent = e.UserAgent
		entry.Metadata = map[string]string{"role": e.Role}
	case models.TokenReuseDetected:
		entry.Success = false
		entry.UserID = e.UserID
		entry.IPAddress = e.IPAddress
		entry.FailureReason = "token_reuse"
		entry.Metadata = map[string]string{"token_id": e.TokenID}
	case models.TokenRefreshed:
		entry.Success = true
		entry.UserID = e.UserID
		entry.IPAddress = e.IPAddress
	case models.MFAEnabled:
		entry.Success = true
		entry.UserID = e.UserID
	case models.MFAVerified:
		entry.Success = true
		entry.UserID = e.UserID
		entry.IPAddress = e.IPAddress
	case models.LoggedOut:
		entry.Success = true
		entry.UserID = e.UserID
		entry.Metadata = map[string]string{"jti": e.JTI}
	default:
		entry.Success = true
	}

	d.audit.LogAuthEvent(entry)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
