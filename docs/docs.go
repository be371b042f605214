// Package docs holds the OpenAPI description served by the Swagger UI.
// Regenerate with `swag init -g cmd/guideserver/main.go` after changing the
// handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Guides"],
                "summary": "Guide index page",
                "operationId": "indexPage",
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/guides": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Guides"],
                "summary": "List guide slugs",
                "operationId": "listGuideSlugs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SlugListResponse"}}
                }
            }
        },
        "/guides/api/guides": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Guides"],
                "summary": "List guides with metadata",
                "operationId": "listGuides",
                "parameters": [
                    {"type": "string", "description": "ETag from a previous response", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.GuideListResponse"}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/guides/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Guides"],
                "summary": "Search published guides",
                "operationId": "searchGuides",
                "parameters": [
                    {"type": "string", "description": "Query", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "description": "Max results (1-50)", "name": "k", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/guides/{slug}/tutorial": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Guides"],
                "summary": "Render a tutorial",
                "operationId": "getTutorial",
                "parameters": [
                    {"type": "string", "description": "Guide slug", "name": "slug", "in": "path", "required": true},
                    {"type": "boolean", "description": "Render the preview documents", "name": "preview", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/guides/{slug}/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Views"],
                "summary": "View counts of one guide",
                "operationId": "getGuideStats",
                "parameters": [
                    {"type": "string", "description": "Guide slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.GuideViewStats"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Start an admin session",
                "operationId": "login",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/auth/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Check the current session",
                "operationId": "verifySession",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.VerifyResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "End the current session",
                "operationId": "logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StatusResponse"}}
                }
            }
        },
        "/admin/save-draft": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Save a draft",
                "operationId": "saveDraft",
                "parameters": [
                    {"description": "Guide", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SaveGuideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SaveGuideResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/publish-guide": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Publish a guide",
                "operationId": "publishGuide",
                "parameters": [
                    {"description": "Guide", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SaveGuideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SaveGuideResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "View statistics across guides",
                "operationId": "adminStats",
                "parameters": [
                    {"type": "integer", "description": "Size of the top-guides ranking (1-100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AdminStatsResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.GuideViewStats": {
            "type": "object",
            "properties": {
                "total_views": {"type": "integer"},
                "unique_viewers": {"type": "integer"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "status": {"type": "string", "example": "error"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string"}
            }
        },
        "handlers.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "message": {"type": "string"}
            }
        },
        "handlers.SlugListResponse": {
            "type": "object",
            "properties": {
                "guides": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.GuideListResponse": {
            "type": "object",
            "properties": {
                "guides": {"type": "array", "items": {"type": "object"}},
                "total": {"type": "integer"}
            }
        },
        "handlers.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["password"],
            "properties": {
                "password": {"type": "string"}
            }
        },
        "handlers.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            }
        },
        "handlers.VerifyResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"}
            }
        },
        "handlers.SaveGuideRequest": {
            "type": "object",
            "properties": {
                "slug": {"type": "string"},
                "create": {"type": "boolean"},
                "guide": {"type": "object"}
            }
        },
        "handlers.SaveGuideResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "message": {"type": "string"},
                "slug": {"type": "string"},
                "created": {"type": "boolean"},
                "tutorial_url": {"type": "string"}
            }
        },
        "handlers.AdminStatsResponse": {
            "type": "object",
            "properties": {
                "overall": {"type": "object"},
                "top_guides": {"type": "array", "items": {"type": "object"}},
                "viewed_guides": {"type": "array", "items": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Guide Server API",
	Description:      "Serves, authors and counts views of step-by-step programming guides.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
