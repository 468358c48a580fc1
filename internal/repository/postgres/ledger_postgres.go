package postgres

import (
	"context"

	"idrepo/internal/apperror"
	"idrepo/internal/model"
	"idrepo/internal/repository"
)

// HistoryPostgres is the PostgreSQL implementation of repository.HistoryLedger.
// It writes through the Execer handed to it, so snapshots land inside the
// mutation's transaction.
type HistoryPostgres struct{}

// NewHistoryPostgres creates a new HistoryPostgres ledger.
func NewHistoryPostgres() *HistoryPostgres {
	return &HistoryPostgres{}
}

var _ repository.HistoryLedger = (*HistoryPostgres)(nil)

func (l *HistoryPostgres) AppendRecordSnapshot(ctx context.Context, ex repository.Execer, snap *model.RecordSnapshot) error {
	const q = `
		INSERT INTO identity_records_history
			(ref_id, snapshot_at, uin, reg_id, document, document_hash, status_code, lang_code,
			 created_by, created_at, updated_by, updated_at, is_deleted, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := ex.ExecContext(ctx, q,
		snap.RefID, snap.SnapshotAt, snap.UIN, snap.RegistrationID, []byte(snap.Document),
		snap.DocumentHash, snap.StatusCode, snap.LangCode,
		snap.CreatedBy, snap.CreatedAt, snap.UpdatedBy, snap.UpdatedAt, snap.IsDeleted, snap.EffectiveAt,
	)
	return apperror.Wrap(apperror.KindDatabaseAccess, "append record snapshot", err)
}

func (l *HistoryPostgres) AppendBiometricSnapshot(ctx context.Context, ex repository.Execer, snap *model.BiometricSnapshot) error {
	const q = `
		INSERT INTO biometric_assets_history
			(ref_id, snapshot_at, asset_type, storage_path, value, format, asset_hash, lang_code,
			 created_by, created_at, updated_by, updated_at, is_deleted, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := ex.ExecContext(ctx, q,
		snap.RecordRefID, snap.SnapshotAt, snap.AssetType, snap.StoragePath, snap.Value,
		snap.Format, snap.AssetHash, snap.LangCode,
		snap.CreatedBy, snap.CreatedAt, snap.UpdatedBy, snap.UpdatedAt, snap.IsDeleted, snap.EffectiveAt,
	)
	return apperror.Wrap(apperror.KindDatabaseAccess, "append biometric snapshot", err)
}

func (l *HistoryPostgres) AppendDocumentSnapshot(ctx context.Context, ex repository.Execer, snap *model.DocumentSnapshot) error {
	const q = `
		INSERT INTO document_assets_history
			(ref_id, snapshot_at, category, doc_type, storage_path, value, format, asset_hash, lang_code,
			 created_by, created_at, updated_by, updated_at, is_deleted, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := ex.ExecContext(ctx, q,
		snap.RecordRefID, snap.SnapshotAt, snap.Category, snap.DocType, snap.StoragePath, snap.Value,
		snap.Format, snap.AssetHash, snap.LangCode,
		snap.CreatedBy, snap.CreatedAt, snap.UpdatedBy, snap.UpdatedAt, snap.IsDeleted, snap.EffectiveAt,
	)
	return apperror.Wrap(apperror.KindDatabaseAccess, "append document snapshot", err)
}
