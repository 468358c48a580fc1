// Package docs holds the OpenAPI definition served by the swagger handler.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/identity": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Create an identity record",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/v1/identity/{uin}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Retrieve an identity record",
                "parameters": [
                    {"type": "string", "name": "uin", "in": "path", "required": true},
                    {"type": "string", "name": "type", "in": "query", "description": "demo, bio, docs or all"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Update status and/or document of an identity record",
                "parameters": [
                    {"type": "string", "name": "uin", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"},
                    "409": {"description": "Conflict"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Identity Repository API",
	Description:      "Identity-record repository: canonical identity documents with biometric and document assets.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
