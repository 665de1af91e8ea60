package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"aurum/internal/core/id"
	"aurum/internal/domain/audit"
)

// Compile-time check that AuditRepo implements audit.Repository.
var _ audit.Repository = (*AuditRepo)(nil)

// compressionAlgo specifies the compression used for a stored payload.
type compressionAlgo string

const (
	compressionNone compressionAlgo = "none"
	compressionZstd compressionAlgo = "zstd"
)

// AuditRepo persists audit records in the audit_log table.
// Large payloads are zstd-compressed transparently.
type AuditRepo struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txManager *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRepo{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Insert stores an audit record. Rows are never updated or removed.
func (r *AuditRepo) Insert(ctx context.Context, rec audit.Record) error {
	payload := []byte(rec.Payload)
	var compressed []byte
	algo := compressionNone

	if len(payload) > r.compressThreshold {
		compressed = r.encoder.EncodeAll(payload, nil)
		payload = nil
		algo = compressionZstd
	}

	sql := `
		INSERT INTO audit_log (
			id, entity_type, entity_id, action, user_id,
			payload, payload_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := r.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, sql,
		rec.ID, rec.EntityType, rec.EntityID, rec.Action, rec.UserID,
		payload, compressed, algo, rec.CreatedAt,
	)

	return err
}

// ListByEntity retrieves the newest audit records for an entity.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Record, error) {
	sql := `
		SELECT id, entity_type, entity_id, action, user_id,
		       payload, payload_compressed, compression_algo, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit history: %w", err)
	}
	defer rows.Close()

	var records []audit.Record
	for rows.Next() {
		var rec audit.Record
		var compressed []byte
		var algo compressionAlgo
		err := rows.Scan(
			&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Action, &rec.UserID,
			&rec.Payload, &compressed, &algo, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}

		if algo == compressionZstd && len(compressed) > 0 {
			decompressed, err := r.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			rec.Payload = decompressed
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}
