package model

import (
	"encoding/json"
	"time"
)

// IdentityRecord is the canonical identity document for one UIN.
// RefID is the immutable surrogate key; UIN and RegistrationID each carry a
// unique constraint, so at most one live record exists per external key.
type IdentityRecord struct {
	RefID          string          `json:"ref_id"`
	UIN            string          `json:"uin"`
	RegistrationID string          `json:"registration_id"`
	Document       json.RawMessage `json:"document,omitempty"`
	DocumentHash   string          `json:"document_hash"`
	StatusCode     string          `json:"status"`
	LangCode       string          `json:"lang_code"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedBy      string          `json:"updated_by"`
	UpdatedAt      time.Time       `json:"updated_at"`
	IsDeleted      bool            `json:"is_deleted"`
	EffectiveAt    time.Time       `json:"effective_at"`
}

// BiometricAsset is a binary attachment in CBEFF format stored in the object
// store under the record's UIN bucket. StoragePath is unique per record.
type BiometricAsset struct {
	RecordRefID string    `json:"record_ref_id"`
	AssetType   string    `json:"asset_type"`
	StoragePath string    `json:"storage_path"`
	Value       string    `json:"value"`
	Format      string    `json:"format"`
	AssetHash   string    `json:"asset_hash"`
	LangCode    string    `json:"lang_code"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedBy   string    `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDeleted   bool      `json:"is_deleted"`
	EffectiveAt time.Time `json:"effective_at"`
}

// DocumentAsset is a non-biometric binary attachment (POA, POI, ...).
// Category comes from the document descriptor attribute in the identity payload.
type DocumentAsset struct {
	RecordRefID string    `json:"record_ref_id"`
	Category    string    `json:"category"`
	DocType     string    `json:"doc_type"`
	StoragePath string    `json:"storage_path"`
	Value       string    `json:"value"`
	Format      string    `json:"format"`
	AssetHash   string    `json:"asset_hash"`
	LangCode    string    `json:"lang_code"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedBy   string    `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsDeleted   bool      `json:"is_deleted"`
	EffectiveAt time.Time `json:"effective_at"`
}

// RecordSnapshot is one immutable history row for an identity record,
// captured at SnapshotAt. Snapshots are append-only and never read back on
// the normal retrieve path.
type RecordSnapshot struct {
	SnapshotAt time.Time `json:"snapshot_at"`
	IdentityRecord
}

// BiometricSnapshot is one immutable history row for a biometric asset.
type BiometricSnapshot struct {
	SnapshotAt time.Time `json:"snapshot_at"`
	BiometricAsset
}

// DocumentSnapshot is one immutable history row for a document asset.
type DocumentSnapshot struct {
	SnapshotAt time.Time `json:"snapshot_at"`
	DocumentAsset
}

// Attachment is the wire shape of a binary attachment: the descriptor
// attribute name it belongs to plus base64-encoded content.
type Attachment struct {
	DocType string `json:"docType"`
	Value   string `json:"value"`
}
