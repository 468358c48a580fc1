package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"idrepo/internal/apperror"
	"idrepo/internal/model"
	"idrepo/internal/repository"
	"idrepo/internal/shard"
)

const uniqueViolation = "23505"

// IdentityPostgres is the PostgreSQL implementation of
// repository.IdentityRepository. It is stateless: every call runs against the
// pool carried by the shard context, and mutations append their history
// snapshots through the ledger inside the same transaction.
type IdentityPostgres struct {
	ledger repository.HistoryLedger
}

// NewIdentityPostgres creates a new IdentityPostgres repository.
func NewIdentityPostgres(ledger repository.HistoryLedger) *IdentityPostgres {
	return &IdentityPostgres{ledger: ledger}
}

var _ repository.IdentityRepository = (*IdentityPostgres)(nil)

const recordColumns = `ref_id, uin, reg_id, document, document_hash, status_code, lang_code,
		created_by, created_at, updated_by, updated_at, is_deleted, effective_at`

func (r *IdentityPostgres) ExistsByUin(ctx context.Context, sc shard.Context, uin string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM identity_records WHERE uin = $1 AND NOT is_deleted)`
	var exists bool
	if err := sc.DB.QueryRowContext(ctx, q, uin).Scan(&exists); err != nil {
		return false, apperror.Wrap(apperror.KindDatabaseAccess, "check uin existence", err)
	}
	return exists, nil
}

func (r *IdentityPostgres) ExistsByRegistrationID(ctx context.Context, sc shard.Context, regID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM identity_records WHERE reg_id = $1 AND NOT is_deleted)`
	var exists bool
	if err := sc.DB.QueryRowContext(ctx, q, regID).Scan(&exists); err != nil {
		return false, apperror.Wrap(apperror.KindDatabaseAccess, "check registration id existence", err)
	}
	return exists, nil
}

func (r *IdentityPostgres) StatusByUin(ctx context.Context, sc shard.Context, uin string) (string, error) {
	const q = `SELECT status_code FROM identity_records WHERE uin = $1 AND NOT is_deleted`
	var status string
	if err := sc.DB.QueryRowContext(ctx, q, uin).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.Newf(apperror.KindNotFound, "no record found for uin %s", uin)
		}
		return "", apperror.Wrap(apperror.KindDatabaseAccess, "fetch status", err)
	}
	return status, nil
}

func (r *IdentityPostgres) FindByUin(ctx context.Context, sc shard.Context, uin string) (*model.IdentityRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM identity_records WHERE uin = $1 AND NOT is_deleted`
	row := sc.DB.QueryRowContext(ctx, q, uin)

	var rec model.IdentityRecord
	var doc []byte
	err := row.Scan(
		&rec.RefID, &rec.UIN, &rec.RegistrationID, &doc, &rec.DocumentHash,
		&rec.StatusCode, &rec.LangCode,
		&rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedBy, &rec.UpdatedAt,
		&rec.IsDeleted, &rec.EffectiveAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.Newf(apperror.KindNotFound, "no record found for uin %s", uin)
		}
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "fetch record", err)
	}
	rec.Document = doc
	return &rec, nil
}

// Create runs the whole create-if-absent as one transaction: the existence
// check, the record insert, the asset inserts and every initial history
// snapshot either all commit or all roll back. The unique constraints on uin
// and reg_id close the race two concurrent creates would otherwise leave open.
func (r *IdentityPostgres) Create(ctx context.Context, sc shard.Context, rec *model.IdentityRecord,
	bios []model.BiometricAsset, docs []model.DocumentAsset) (*model.IdentityRecord, error) {

	tx, err := sc.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "begin create transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	const existsQ = `SELECT
		EXISTS (SELECT 1 FROM identity_records WHERE uin = $1),
		EXISTS (SELECT 1 FROM identity_records WHERE reg_id = $2)`
	var uinExists, regExists bool
	if err := tx.QueryRowContext(ctx, existsQ, rec.UIN, rec.RegistrationID).Scan(&uinExists, &regExists); err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "check record existence", err)
	}
	if uinExists || regExists {
		return nil, apperror.New(apperror.KindDuplicateRecord, "record already exists for uin or registration id")
	}

	const insertQ = `INSERT INTO identity_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = tx.ExecContext(ctx, insertQ,
		rec.RefID, rec.UIN, rec.RegistrationID, []byte(rec.Document), rec.DocumentHash,
		rec.StatusCode, rec.LangCode,
		rec.CreatedBy, rec.CreatedAt, rec.UpdatedBy, rec.UpdatedAt, rec.IsDeleted, rec.EffectiveAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Wrap(apperror.KindDuplicateRecord, "record already exists for uin or registration id", err)
		}
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "insert record", err)
	}

	now := time.Now().UTC()

	const bioQ = `INSERT INTO biometric_assets
			(ref_id, asset_type, storage_path, value, format, asset_hash, lang_code,
			 created_by, created_at, updated_by, updated_at, is_deleted, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for i := range bios {
		b := &bios[i]
		_, err = tx.ExecContext(ctx, bioQ,
			b.RecordRefID, b.AssetType, b.StoragePath, b.Value, b.Format, b.AssetHash, b.LangCode,
			b.CreatedBy, b.CreatedAt, b.UpdatedBy, b.UpdatedAt, b.IsDeleted, b.EffectiveAt,
		)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindDatabaseAccess, "insert biometric asset", err)
		}
		snap := &model.BiometricSnapshot{SnapshotAt: now, BiometricAsset: *b}
		if err := r.ledger.AppendBiometricSnapshot(ctx, tx, snap); err != nil {
			return nil, err
		}
	}

	const docQ = `INSERT INTO document_assets
			(ref_id, category, doc_type, storage_path, value, format, asset_hash, lang_code,
			 created_by, created_at, updated_by, updated_at, is_deleted, effective_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for i := range docs {
		d := &docs[i]
		_, err = tx.ExecContext(ctx, docQ,
			d.RecordRefID, d.Category, d.DocType, d.StoragePath, d.Value, d.Format, d.AssetHash, d.LangCode,
			d.CreatedBy, d.CreatedAt, d.UpdatedBy, d.UpdatedAt, d.IsDeleted, d.EffectiveAt,
		)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindDatabaseAccess, "insert document asset", err)
		}
		snap := &model.DocumentSnapshot{SnapshotAt: now, DocumentAsset: *d}
		if err := r.ledger.AppendDocumentSnapshot(ctx, tx, snap); err != nil {
			return nil, err
		}
	}

	if err := r.ledger.AppendRecordSnapshot(ctx, tx, &model.RecordSnapshot{SnapshotAt: now, IdentityRecord: *rec}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "commit create transaction", err)
	}

	out := *rec
	return &out, nil
}

// UpdateStatus appends a snapshot of the pre-update state, then persists the
// new status, in one transaction.
func (r *IdentityPostgres) UpdateStatus(ctx context.Context, sc shard.Context, rec *model.IdentityRecord, status string) (*model.IdentityRecord, error) {
	now := time.Now().UTC()

	tx, err := sc.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "begin status transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.ledger.AppendRecordSnapshot(ctx, tx, &model.RecordSnapshot{SnapshotAt: now, IdentityRecord: *rec}); err != nil {
		return nil, err
	}

	const q = `UPDATE identity_records SET status_code = $1, updated_by = $2, updated_at = $3 WHERE ref_id = $4`
	if _, err := tx.ExecContext(ctx, q, status, rec.UpdatedBy, now, rec.RefID); err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "update status", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "commit status transaction", err)
	}

	out := *rec
	out.StatusCode = status
	out.UpdatedAt = now
	return &out, nil
}

// UpdateDocument appends a snapshot of the pre-update state, then persists
// the merged document and its recomputed hash, in one transaction.
func (r *IdentityPostgres) UpdateDocument(ctx context.Context, sc shard.Context, rec *model.IdentityRecord, document []byte, hash string) (*model.IdentityRecord, error) {
	now := time.Now().UTC()

	tx, err := sc.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "begin document transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.ledger.AppendRecordSnapshot(ctx, tx, &model.RecordSnapshot{SnapshotAt: now, IdentityRecord: *rec}); err != nil {
		return nil, err
	}

	const q = `UPDATE identity_records SET document = $1, document_hash = $2, updated_by = $3, updated_at = $4 WHERE ref_id = $5`
	if _, err := tx.ExecContext(ctx, q, document, hash, rec.UpdatedBy, now, rec.RefID); err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "update document", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperror.Wrap(apperror.KindDatabaseAccess, "commit document transaction", err)
	}

	out := *rec
	out.Document = document
	out.DocumentHash = hash
	out.UpdatedAt = now
	return &out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
