// Package docs registers the swagger specification for the analyzer API.
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
        "/runs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List runs",
                "responses": {
                    "200": {"description": "List of runs"}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Trigger an analyzer run",
                "responses": {
                    "200": {"description": "Run created"}
                }
            }
        },
        "/runs/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get run",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Run details"},
                    "404": {"description": "Run not found"}
                }
            }
        },
        "/runs/{id}/errors": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get run errors",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Errors"}
                }
            }
        },
        "/runs/{id}/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get run logs",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Log lines"}
                }
            }
        },
        "/runs/{id}/progress": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get run progress",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Stage progress"}
                }
            }
        },
        "/processed": {
            "get": {
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List processed log files",
                "responses": {
                    "200": {"description": "Processed files"}
                }
            }
        },
        "/reports": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reports"],
                "summary": "List reports",
                "responses": {
                    "200": {"description": "Report files"}
                }
            }
        },
        "/reports/{name}": {
            "get": {
                "produces": ["text/html"],
                "tags": ["reports"],
                "summary": "Download a report",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Report content"},
                    "404": {"description": "Report not found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Log Analyzer API",
	Description:      "Run history and report access for the access-log analyzer pipeline",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
