// Package audit provides the audit trail contract and service.
// Every finalization, payment and manual adjustment leaves a record with
// the acting user and a snapshot payload.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appctx "aurum/internal/core/context"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/pkg/logger"
)

// Action labels the audited operation.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionFinalize Action = "finalize"
	ActionPayment  Action = "payment"
	ActionAdjust   Action = "adjust"
)

// Record is one audit trail row.
type Record struct {
	ID         id.ID           `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	UserID     string          `db:"user_id" json:"userId"`
	Payload    json.RawMessage `db:"payload" json:"payload,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Repository persists audit records.
type Repository interface {
	// Insert stores a record. Records are never updated or removed.
	Insert(ctx context.Context, rec Record) error

	// ListByEntity returns the newest records for an entity
	ListByEntity(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Record, error)
}

// Service writes and reads the audit trail.
type Service struct {
	repo Repository
}

// NewService creates an audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Log stores an audit record, filling id, user and timestamp.
func (s *Service) Log(ctx context.Context, entityType string, entityID id.ID, action Action, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		raw = data
	}

	rec := Record{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		Payload:    raw,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}

	logger.Debug(ctx, "audit record written",
		"entity_type", entityType,
		"entity_id", entityID,
		"action", action,
	)

	return nil
}

// Record implements the finalization engine's auditor contract.
func (s *Service) Record(ctx context.Context, action string, docKind entity.SourceKind, docID id.ID, payload any) error {
	return s.Log(ctx, string(docKind), docID, Action(action), payload)
}

// History returns the newest audit records for an entity.
func (s *Service) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByEntity(ctx, entityType, entityID, limit)
}
