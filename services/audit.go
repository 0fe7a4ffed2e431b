package services

import (
	"log"
	"time"
)

// AuditEvent is a fire-and-forget who/what/when record handed to the audit
// sink after a commit. Delivery is never awaited for correctness.
type AuditEvent struct {
	Actor   string
	Action  string // e.g., "transfer", "trade_accept", "claim_reward"
	Subject string // the affected record id
	At      time.Time
	Detail  map[string]interface{}
}

// AuditSink receives audit events; the production deployment wires a real
// sink through the gateway, services here only need the interface.
type AuditSink interface {
	Record(evt AuditEvent)
}

// LogAuditSink is the default sink: one structured log line per event
type LogAuditSink struct{}

func (LogAuditSink) Record(evt AuditEvent) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	log.Printf("📝 [AUDIT] actor=%s action=%s subject=%s detail=%v", evt.Actor, evt.Action, evt.Subject, evt.Detail)
}

// CacheInvalidator signals read caches to drop stale keys. Best effort only;
// correctness never depends on invalidation reaching anyone.
type CacheInvalidator interface {
	Invalidate(keys ...string)
}

// NopCacheInvalidator is the default when no cache layer is deployed
type NopCacheInvalidator struct{}

func (NopCacheInvalidator) Invalidate(keys ...string) {}
