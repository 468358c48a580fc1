package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"idrepo/internal/apperror"
	"idrepo/internal/database"
	"idrepo/internal/model"
	"idrepo/internal/service"
	svcMocks "idrepo/internal/service/mocks"
)

func newTestApp(svc service.IdentityService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, nil, svc)
	return app
}

func decodeBody(t *testing.T, r io.Reader, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r).Decode(out))
}

func TestCreateIdentity(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Create", mock.Anything, mock.MatchedBy(func(req *service.CreateRequest) bool {
			return req.UIN == "274390482564" && req.RegistrationID == "reg-1" &&
				len(req.Attachments) == 1 && req.Attachments[0].DocType == "proofOfAddress"
		})).Return(&service.Result{Record: &model.IdentityRecord{
			UIN: "274390482564", StatusCode: "REGISTERED",
		}}, nil)

		body := `{
			"uin": "274390482564",
			"registrationId": "reg-1",
			"request": {"name":[{"language":"en","value":"A"}]},
			"documents": [{"docType":"proofOfAddress","value":"cGFzc3BvcnQ="}]
		}`
		req := httptest.NewRequest(fiber.MethodPost, "/v1/identity", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var env identityEnvelope
		decodeBody(t, resp.Body, &env)
		assert.Equal(t, "idrepo.identity.create", env.ID)
		assert.Equal(t, "274390482564", env.UIN)
		assert.Equal(t, "REGISTERED", env.Status)
		assert.Contains(t, env.Response.Entity, "/v1/identity/274390482564")
		svc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		req := httptest.NewRequest(fiber.MethodPost, "/v1/identity", strings.NewReader("{not json"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "INVALID_REQUEST", payload.Error.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate maps to conflict", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperror.New(apperror.KindDuplicateRecord, "record already exists for uin 274390482564"))

		body := `{"uin":"274390482564","registrationId":"reg-1","request":{}}`
		req := httptest.NewRequest(fiber.MethodPost, "/v1/identity", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

		var payload errorPayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "IDR-001", payload.Error.Code)
	})

	t.Run("database failure stays opaque", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Create", mock.Anything, mock.Anything).
			Return(nil, apperror.Wrap(apperror.KindDatabaseAccess, "begin transaction",
				assert.AnError))

		body := `{"uin":"274390482564","registrationId":"reg-1","request":{}}`
		req := httptest.NewRequest(fiber.MethodPost, "/v1/identity", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var payload errorPayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "IDR-006", payload.Error.Code)
		assert.Equal(t, "internal server error", payload.Error.Message)
	})
}

func TestRetrieveIdentity(t *testing.T) {
	t.Run("ok with document and attachments", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Retrieve", mock.Anything, "274390482564", service.FilterAll).
			Return(&service.Result{
				Record: &model.IdentityRecord{
					UIN:        "274390482564",
					StatusCode: "REGISTERED",
					Document:   json.RawMessage(`{"name":[{"language":"en","value":"A"}]}`),
				},
				Attachments: []model.Attachment{{DocType: "proofOfAddress", Value: "cGFzc3BvcnQ="}},
			}, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/v1/identity/274390482564", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var env identityEnvelope
		decodeBody(t, resp.Body, &env)
		assert.Equal(t, "idrepo.identity.read", env.ID)
		assert.JSONEq(t, `{"name":[{"language":"en","value":"A"}]}`, string(env.Response.Identity))
		require.Len(t, env.Response.Documents, 1)
		assert.Equal(t, "proofOfAddress", env.Response.Documents[0].DocType)
	})

	t.Run("bio filter passes through and omits the document", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Retrieve", mock.Anything, "274390482564", service.FilterBio).
			Return(&service.Result{
				Record:      &model.IdentityRecord{UIN: "274390482564", StatusCode: "REGISTERED"},
				Attachments: []model.Attachment{{DocType: "individualBiometrics", Value: "ZnA="}},
			}, nil)

		req := httptest.NewRequest(fiber.MethodGet, "/v1/identity/274390482564?type=bio", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var env identityEnvelope
		decodeBody(t, resp.Body, &env)
		assert.Empty(t, env.Response.Identity)
		require.Len(t, env.Response.Documents, 1)
	})

	t.Run("unknown filter", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		req := httptest.NewRequest(fiber.MethodGet, "/v1/identity/274390482564?type=everything", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "IDR-004", payload.Error.Code)
		svc.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Retrieve", mock.Anything, "999", service.FilterAll).
			Return(nil, apperror.New(apperror.KindNotFound, "no record found for uin 999"))

		req := httptest.NewRequest(fiber.MethodGet, "/v1/identity/999", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var payload errorPayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "IDR-002", payload.Error.Code)
	})
}

func TestUpdateIdentity(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Update", mock.Anything, mock.MatchedBy(func(req *service.UpdateRequest) bool {
			return req.UIN == "274390482564" && req.Status == "BLOCKED" && len(req.Document) > 0
		})).Return(&service.Result{Record: &model.IdentityRecord{
			UIN: "274390482564", StatusCode: "BLOCKED",
		}}, nil)

		body := `{"status":"BLOCKED","request":{"name":[{"language":"en","value":"A2"}]}}`
		req := httptest.NewRequest(fiber.MethodPatch, "/v1/identity/274390482564", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var env identityEnvelope
		decodeBody(t, resp.Body, &env)
		assert.Equal(t, "idrepo.identity.update", env.ID)
		assert.Equal(t, "BLOCKED", env.Status)
	})

	t.Run("non-active record maps to conflict", func(t *testing.T) {
		svc := new(svcMocks.MockIdentityService)
		app := newTestApp(svc)

		svc.On("Update", mock.Anything, mock.Anything).
			Return(nil, apperror.New(apperror.KindInvalidState, `record is in status "DEACTIVATED" and cannot be updated`))

		body := `{"status":"REGISTERED"}`
		req := httptest.NewRequest(fiber.MethodPatch, "/v1/identity/274390482564", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

		var payload errorPayload
		decodeBody(t, resp.Body, &payload)
		assert.Equal(t, "IDR-003", payload.Error.Code)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing()

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		RegisterRoutes(app, []database.ShardPool{{Name: "shard0", DB: db}}, new(svcMocks.MockIdentityService))

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("failing shard makes the service unavailable", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectPing().WillReturnError(assert.AnError)

		app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
		RegisterRoutes(app, []database.ShardPool{{Name: "shard0", DB: db}}, new(svcMocks.MockIdentityService))

		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := newTestApp(new(svcMocks.MockIdentityService))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp(new(svcMocks.MockIdentityService))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/no/such/route", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var payload errorPayload
	decodeBody(t, resp.Body, &payload)
	assert.Equal(t, "NOT_FOUND", payload.Error.Code)
}
