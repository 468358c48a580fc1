package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"idrepo/internal/apperror"
	"idrepo/internal/config"
	"idrepo/internal/hashing"
	"idrepo/internal/merge"
	"idrepo/internal/model"
	"idrepo/internal/repository"
	"idrepo/internal/shard"
	"idrepo/internal/storage"
)

const (
	// bioPrefix and docPrefix are the container key roots for the two asset
	// kinds; the full key is <prefix><docType>/<value>.<format>.
	bioPrefix = "Biometrics/"
	docPrefix = "Documents/"

	// cbeffFormat marks an attachment as biometric rather than document.
	cbeffFormat = "cbeff"
)

// Filter is the field-selection policy applied on retrieve. The core exposes
// the record and asset lists; response shaping beyond this enum is the HTTP
// layer's concern.
type Filter string

const (
	FilterDemo Filter = "demo"
	FilterBio  Filter = "bio"
	FilterDocs Filter = "docs"
	FilterAll  Filter = "all"
)

// ParseFilter maps the request's type selector onto a Filter. An empty
// selector means all.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(s)) {
	case FilterDemo:
		return FilterDemo, nil
	case FilterBio:
		return FilterBio, nil
	case FilterDocs:
		return FilterDocs, nil
	case FilterAll, "":
		return FilterAll, nil
	}
	return "", apperror.Newf(apperror.KindInvalidInput, "unknown filter %q", s)
}

// CreateRequest carries the inputs of a create operation.
type CreateRequest struct {
	UIN            string
	RegistrationID string
	Document       json.RawMessage
	Attachments    []model.Attachment
}

// UpdateRequest carries the inputs of an update operation. Status and
// Document are both optional; an update may change either or both.
type UpdateRequest struct {
	UIN      string
	Status   string
	Document json.RawMessage
}

// Result is the outcome of a use case: the record plus whichever attachments
// the filter selected.
type Result struct {
	Record      *model.IdentityRecord
	Attachments []model.Attachment
}

// IdentityService defines the identity repository use cases.
type IdentityService interface {
	// Create stores a new identity record with its attachments. It fails
	// with a DuplicateRecord error when the UIN or registration id is
	// already taken.
	Create(ctx context.Context, req *CreateRequest) (*Result, error)

	// Retrieve returns the record for the UIN with the parts selected by
	// the filter: demo returns the document only, bio/docs return the
	// matching asset list with the document blanked, all returns everything.
	Retrieve(ctx context.Context, uin string, filter Filter) (*Result, error)

	// Update applies a status change and/or a document patch-merge to an
	// active record.
	Update(ctx context.Context, req *UpdateRequest) (*Result, error)
}

type identityService struct {
	router *shard.Router
	repo   repository.IdentityRepository
	blobs  storage.BlobStore
	hasher *hashing.Hasher
	cfg    config.RepoConfig
}

// NewIdentityService constructs a new IdentityService.
func NewIdentityService(router *shard.Router, repo repository.IdentityRepository,
	blobs storage.BlobStore, hasher *hashing.Hasher, cfg config.RepoConfig) IdentityService {
	return &identityService{router: router, repo: repo, blobs: blobs, hasher: hasher, cfg: cfg}
}

// assetDescriptor is the shape of a document descriptor attribute inside the
// identity payload, e.g. "proofOfAddress": {"value":"passport","format":"pdf","category":"POA"}.
type assetDescriptor struct {
	Value    string `json:"value"`
	Format   string `json:"format"`
	Category string `json:"category"`
}

func (s *identityService) Create(ctx context.Context, req *CreateRequest) (*Result, error) {
	if req.UIN == "" || req.RegistrationID == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "uin and registration id are required")
	}
	sc, err := s.router.Resolve(req.UIN)
	if err != nil {
		return nil, err
	}

	// Fast duplicate check before any blob write, so the common duplicate
	// case leaves nothing behind in the object store. The repository's
	// transaction re-checks under the unique constraints.
	if exists, err := s.repo.ExistsByUin(ctx, sc, req.UIN); err != nil {
		return nil, err
	} else if exists {
		return nil, apperror.Newf(apperror.KindDuplicateRecord, "record already exists for uin %s", req.UIN)
	}
	if exists, err := s.repo.ExistsByRegistrationID(ctx, sc, req.RegistrationID); err != nil {
		return nil, err
	} else if exists {
		return nil, apperror.Newf(apperror.KindDuplicateRecord, "record already exists for registration id %s", req.RegistrationID)
	}

	doc, err := canonicalize(req.Document)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.IdentityRecord{
		RefID:          newRefID(),
		UIN:            req.UIN,
		RegistrationID: req.RegistrationID,
		Document:       doc,
		DocumentHash:   s.hasher.Sum(doc),
		StatusCode:     s.cfg.ActiveStatus,
		LangCode:       s.cfg.DefaultLangCode,
		CreatedBy:      s.cfg.SystemUser,
		CreatedAt:      now,
		UpdatedBy:      s.cfg.SystemUser,
		UpdatedAt:      now,
		EffectiveAt:    now,
	}

	bios, docs, err := s.storeAttachments(ctx, rec, req.Attachments)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, sc, rec, bios, docs)
	if err != nil {
		return nil, err
	}
	return &Result{Record: created}, nil
}

// storeAttachments writes each attachment to the blob store and builds the
// asset rows to persist. The loop is fail-fast: the first failing attachment
// aborts the create. Blob writes are not part of the relational transaction;
// a later rollback can leave orphaned blobs, which a reconciliation sweep is
// expected to collect.
func (s *identityService) storeAttachments(ctx context.Context, rec *model.IdentityRecord,
	attachments []model.Attachment) ([]model.BiometricAsset, []model.DocumentAsset, error) {

	if len(attachments) == 0 {
		return nil, nil, nil
	}

	attrs := map[string]json.RawMessage{}
	if err := json.Unmarshal(rec.Document, &attrs); err != nil {
		return nil, nil, apperror.Wrap(apperror.KindInvalidInput, "document payload is not a JSON object", err)
	}

	var bios []model.BiometricAsset
	var docs []model.DocumentAsset
	for _, att := range attachments {
		raw, ok := attrs[att.DocType]
		if !ok {
			// Attachments without a descriptor attribute in the document
			// are ignored, matching the create contract: the document
			// drives which attachments are stored.
			continue
		}
		var desc assetDescriptor
		if err := json.Unmarshal(raw, &desc); err != nil || desc.Value == "" || desc.Format == "" {
			return nil, nil, apperror.Newf(apperror.KindInvalidInput,
				"attribute %q is not a valid asset descriptor", att.DocType)
		}
		data, err := base64.StdEncoding.DecodeString(att.Value)
		if err != nil {
			return nil, nil, apperror.Wrap(apperror.KindInvalidInput, "attachment content is not valid base64", err)
		}

		path := docPrefix + att.DocType + "/"
		if strings.EqualFold(desc.Format, cbeffFormat) {
			path = bioPrefix + att.DocType + "/"
		}
		key := path + desc.Value + "." + desc.Format

		if err := s.blobs.Put(ctx, rec.UIN, key, data); err != nil {
			return nil, nil, err
		}

		if strings.EqualFold(desc.Format, cbeffFormat) {
			bios = append(bios, model.BiometricAsset{
				RecordRefID: rec.RefID,
				AssetType:   att.DocType,
				StoragePath: path,
				Value:       desc.Value,
				Format:      desc.Format,
				AssetHash:   s.hasher.Sum(data),
				LangCode:    rec.LangCode,
				CreatedBy:   rec.CreatedBy,
				CreatedAt:   rec.CreatedAt,
				UpdatedBy:   rec.UpdatedBy,
				UpdatedAt:   rec.UpdatedAt,
				EffectiveAt: rec.EffectiveAt,
			})
		} else {
			docs = append(docs, model.DocumentAsset{
				RecordRefID: rec.RefID,
				Category:    desc.Category,
				DocType:     att.DocType,
				StoragePath: path,
				Value:       desc.Value,
				Format:      desc.Format,
				AssetHash:   s.hasher.Sum(data),
				LangCode:    rec.LangCode,
				CreatedBy:   rec.CreatedBy,
				CreatedAt:   rec.CreatedAt,
				UpdatedBy:   rec.UpdatedBy,
				UpdatedAt:   rec.UpdatedAt,
				EffectiveAt: rec.EffectiveAt,
			})
		}
	}
	return bios, docs, nil
}

func (s *identityService) Retrieve(ctx context.Context, uin string, filter Filter) (*Result, error) {
	sc, err := s.router.Resolve(uin)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByUin(ctx, sc, uin)
	if err != nil {
		return nil, err
	}

	switch filter {
	case FilterDemo:
		return &Result{Record: rec}, nil
	case FilterBio:
		atts, err := s.listAttachments(ctx, uin, bioPrefix)
		if err != nil {
			return nil, err
		}
		rec.Document = nil
		return &Result{Record: rec, Attachments: atts}, nil
	case FilterDocs:
		atts, err := s.listAttachments(ctx, uin, docPrefix)
		if err != nil {
			return nil, err
		}
		rec.Document = nil
		return &Result{Record: rec, Attachments: atts}, nil
	default:
		bios, err := s.listAttachments(ctx, uin, bioPrefix)
		if err != nil {
			return nil, err
		}
		docs, err := s.listAttachments(ctx, uin, docPrefix)
		if err != nil {
			return nil, err
		}
		return &Result{Record: rec, Attachments: append(bios, docs...)}, nil
	}
}

func (s *identityService) listAttachments(ctx context.Context, uin, prefix string) ([]model.Attachment, error) {
	objects, err := s.blobs.List(ctx, uin, prefix)
	if err != nil {
		return nil, err
	}
	atts := make([]model.Attachment, 0, len(objects))
	for _, obj := range objects {
		parts := strings.Split(obj.Key, "/")
		if len(parts) < 2 {
			continue
		}
		atts = append(atts, model.Attachment{
			DocType: parts[1],
			Value:   base64.StdEncoding.EncodeToString(obj.Data),
		})
	}
	return atts, nil
}

func (s *identityService) Update(ctx context.Context, req *UpdateRequest) (*Result, error) {
	sc, err := s.router.Resolve(req.UIN)
	if err != nil {
		return nil, err
	}
	if err := s.requireActive(ctx, sc, req.UIN); err != nil {
		return nil, err
	}

	rec, err := s.repo.FindByUin(ctx, sc, req.UIN)
	if err != nil {
		return nil, err
	}
	rec.UpdatedBy = s.cfg.SystemUser

	out := rec
	if req.Status != "" && req.Status != rec.StatusCode {
		out, err = s.repo.UpdateStatus(ctx, sc, rec, req.Status)
		if err != nil {
			return nil, err
		}
	}

	if len(req.Document) > 0 {
		incoming, err := canonicalize(req.Document)
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(incoming, out.Document) {
			merged, err := merge.Documents(out.Document, incoming)
			if err != nil {
				return nil, err
			}
			out, err = s.repo.UpdateDocument(ctx, sc, out, merged, s.hasher.Sum(merged))
			if err != nil {
				return nil, err
			}
		}
	}

	return &Result{Record: out}, nil
}

// requireActive is the precondition for every update: the UIN must be known
// and the record must be in the active status.
func (s *identityService) requireActive(ctx context.Context, sc shard.Context, uin string) error {
	exists, err := s.repo.ExistsByUin(ctx, sc, uin)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.Newf(apperror.KindNotFound, "no record found for uin %s", uin)
	}
	status, err := s.repo.StatusByUin(ctx, sc, uin)
	if err != nil {
		return err
	}
	if status != s.cfg.ActiveStatus {
		return apperror.Newf(apperror.KindInvalidState, "record is in status %q and cannot be updated", status)
	}
	return nil
}

// canonicalize re-encodes the document with sorted attribute names so stored
// bytes, equality checks and merge output all share one stable encoding.
func canonicalize(doc json.RawMessage) ([]byte, error) {
	attrs := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc, &attrs); err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "document payload is not a JSON object", err)
	}
	out, err := json.Marshal(attrs)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "encode document payload", err)
	}
	return out, nil
}

// newRefID generates the 28-character surrogate key for a new record.
func newRefID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:28]
}
