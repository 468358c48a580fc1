package repository

import (
	"context"

	"idrepo/internal/model"
	"idrepo/internal/shard"
)

// IdentityRepository defines data access for identity records and their
// assets. No business logic here, strictly persistence operations.
//
// Create, UpdateStatus and UpdateDocument each run as one transaction that
// also appends the corresponding history snapshots, so a failure on any step
// rolls back every relational write of that call.
type IdentityRepository interface {
	// ExistsByUin reports whether a record exists for the UIN.
	ExistsByUin(ctx context.Context, sc shard.Context, uin string) (bool, error)

	// ExistsByRegistrationID reports whether a record exists for the registration id.
	ExistsByRegistrationID(ctx context.Context, sc shard.Context, regID string) (bool, error)

	// StatusByUin returns the status code of the record for the UIN.
	StatusByUin(ctx context.Context, sc shard.Context, uin string) (string, error)

	// FindByUin returns the record for the UIN, or a NotFound error.
	FindByUin(ctx context.Context, sc shard.Context, uin string) (*model.IdentityRecord, error)

	// Create inserts the record, its assets and one history snapshot per
	// created entity as a single transactional create-if-absent. A record
	// already existing for the UIN or registration id fails the whole
	// transaction with a DuplicateRecord error.
	Create(ctx context.Context, sc shard.Context, rec *model.IdentityRecord,
		bios []model.BiometricAsset, docs []model.DocumentAsset) (*model.IdentityRecord, error)

	// UpdateStatus snapshots the pre-update state and persists the new
	// status, atomically. It returns the updated record.
	UpdateStatus(ctx context.Context, sc shard.Context, rec *model.IdentityRecord, status string) (*model.IdentityRecord, error)

	// UpdateDocument snapshots the pre-update state and persists the new
	// document bytes and hash, atomically. It returns the updated record.
	UpdateDocument(ctx context.Context, sc shard.Context, rec *model.IdentityRecord, document []byte, hash string) (*model.IdentityRecord, error)
}

// HistoryLedger appends immutable audit snapshots. There are no update or
// delete operations; the ledger is never consulted on the read path.
type HistoryLedger interface {
	AppendRecordSnapshot(ctx context.Context, ex Execer, snap *model.RecordSnapshot) error
	AppendBiometricSnapshot(ctx context.Context, ex Execer, snap *model.BiometricSnapshot) error
	AppendDocumentSnapshot(ctx context.Context, ex Execer, snap *model.DocumentSnapshot) error
}
