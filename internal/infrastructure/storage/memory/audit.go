package memory

import (
	"context"

	"aurum/internal/core/id"
	"aurum/internal/domain/audit"
)

// AuditLog implements audit.Repository.
type AuditLog struct {
	s *Store
}

// AuditLog returns the audit log view of the store.
func (s *Store) AuditLog() *AuditLog {
	return &AuditLog{s: s}
}

var _ audit.Repository = (*AuditLog)(nil)

func (r *AuditLog) Insert(ctx context.Context, rec audit.Record) error {
	defer r.s.acquire(ctx)()
	r.s.auditRecords = append(r.s.auditRecords, rec)
	return nil
}

// ListByEntity returns the newest records first.
func (r *AuditLog) ListByEntity(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Record, error) {
	defer r.s.acquire(ctx)()
	var out []audit.Record
	for i := len(r.s.auditRecords) - 1; i >= 0; i-- {
		rec := r.s.auditRecords[i]
		if rec.EntityType != entityType || rec.EntityID != entityID {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
