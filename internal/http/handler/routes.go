package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"idrepo/internal/database"
	"idrepo/internal/model"
	"idrepo/internal/service"
)

// Operation ids stamped into the response envelope.
const (
	opCreate = "idrepo.identity.create"
	opRead   = "idrepo.identity.read"
	opUpdate = "idrepo.identity.update"
)

// identityEnvelope is the response contract shared by create, retrieve and
// update: operation id, timestamp, uin, status and the filtered body.
type identityEnvelope struct {
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	UIN       string       `json:"uin"`
	Status    string       `json:"status"`
	Response  envelopeBody `json:"response"`
}

type envelopeBody struct {
	// Entity is the self hyperlink to the created/updated resource.
	Entity    string             `json:"entity,omitempty"`
	Identity  json.RawMessage    `json:"identity,omitempty"`
	Documents []model.Attachment `json:"documents,omitempty"`
}

type createBody struct {
	UIN            string             `json:"uin"`
	RegistrationID string             `json:"registrationId"`
	Request        json.RawMessage    `json:"request"`
	Documents      []model.Attachment `json:"documents"`
}

type updateBody struct {
	Status  string          `json:"status"`
	Request json.RawMessage `json:"request"`
}

func newEnvelope(op string, res *service.Result) identityEnvelope {
	return identityEnvelope{
		ID:        op,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		UIN:       res.Record.UIN,
		Status:    res.Record.StatusCode,
	}
}

func entityLink(c *fiber.Ctx, uin string) string {
	return c.BaseURL() + "/v1/identity/" + uin
}

// CreateIdentity handles POST /v1/identity.
// @Summary Create an identity record
// @Accept json
// @Produce json
// @Success 201 {object} identityEnvelope
// @Router /v1/identity [post]
func CreateIdentity(svc service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body createBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
		}

		res, err := svc.Create(c.UserContext(), &service.CreateRequest{
			UIN:            body.UIN,
			RegistrationID: body.RegistrationID,
			Document:       body.Request,
			Attachments:    body.Documents,
		})
		if err != nil {
			return writeAppError(c, err)
		}

		env := newEnvelope(opCreate, res)
		env.Response.Entity = entityLink(c, res.Record.UIN)
		return c.Status(fiber.StatusCreated).JSON(env)
	}
}

// RetrieveIdentity handles GET /v1/identity/:uin with an optional
// type=demo|bio|docs|all selector.
// @Summary Retrieve an identity record
// @Produce json
// @Success 200 {object} identityEnvelope
// @Router /v1/identity/{uin} [get]
func RetrieveIdentity(svc service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := service.ParseFilter(c.Query("type"))
		if err != nil {
			return writeAppError(c, err)
		}

		res, err := svc.Retrieve(c.UserContext(), c.Params("uin"), filter)
		if err != nil {
			return writeAppError(c, err)
		}

		env := newEnvelope(opRead, res)
		if len(res.Record.Document) > 0 {
			env.Response.Identity = res.Record.Document
		}
		if len(res.Attachments) > 0 {
			env.Response.Documents = res.Attachments
		}
		return c.JSON(env)
	}
}

// UpdateIdentity handles PATCH /v1/identity/:uin.
// @Summary Update status and/or document of an identity record
// @Accept json
// @Produce json
// @Success 200 {object} identityEnvelope
// @Router /v1/identity/{uin} [patch]
func UpdateIdentity(svc service.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body updateBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", "request body is not valid JSON")
		}

		res, err := svc.Update(c.UserContext(), &service.UpdateRequest{
			UIN:      c.Params("uin"),
			Status:   body.Status,
			Document: body.Request,
		})
		if err != nil {
			return writeAppError(c, err)
		}

		env := newEnvelope(opUpdate, res)
		env.Response.Entity = entityLink(c, res.Record.UIN)
		return c.JSON(env)
	}
}

// HealthCheck pings every shard pool; any failing shard makes the service
// unhealthy.
func HealthCheck(pools []database.ShardPool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		for _, p := range pools {
			if err := p.DB.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, pools []database.ShardPool, svc service.IdentityService) {
	app.Get("/health", HealthCheck(pools))
	app.Get("/healthz", LivenessProbe())

	v1 := app.Group("/v1")
	v1.Post("/identity", CreateIdentity(svc))
	v1.Get("/identity/:uin", RetrieveIdentity(svc))
	v1.Patch("/identity/:uin", UpdateIdentity(svc))
}
