package shared

import (
	"net/http"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/requestctx"
)

// AuditEntry fills the request-derived fields of an audit entry.
func AuditEntry(r *http.Request, actorID, action, entityType, entityID string, before, after any) audit.Entry {
	return audit.Entry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(r.Context()),
		IP:         ClientIP(r),
		Before:     before,
		After:      after,
	}
}
