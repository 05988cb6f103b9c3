// Package docs holds the OpenAPI description served under /swagger.
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
        "/tracking/view": {
            "post": {
                "description": "kind=init starts a visit and returns its id, kind=heartbeat adds seconds to an existing visit",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["/tracking"],
                "summary": "Track a page view",
                "parameters": [
                    {"description": "View payload", "name": "view", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.TrackViewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.InitVisitResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/tracking/event": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["/tracking"],
                "summary": "Record an interaction event",
                "parameters": [
                    {"description": "Event payload", "name": "event", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.RecordEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/tracking/trending": {
            "get": {
                "produces": ["application/json"],
                "tags": ["/tracking"],
                "summary": "Trending targets for today",
                "parameters": [
                    {"type": "integer", "description": "Number of items (default 10, max 50)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wrapper.ResponseWrapper"}}
                }
            }
        },
        "/experiments/variant": {
            "get": {
                "produces": ["application/json"],
                "tags": ["/experiments"],
                "summary": "Get the session's variant",
                "parameters": [
                    {"type": "string", "description": "Experiment slug", "name": "slug", "in": "query", "required": true},
                    {"type": "string", "description": "Session token", "name": "sessionId", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.VariantResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/experiments/conversion": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["/experiments"],
                "summary": "Record a conversion for an assigned session",
                "parameters": [
                    {"description": "Conversion payload", "name": "conversion", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.RecordConversionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/admin/analytics": {
            "get": {
                "produces": ["application/json"],
                "tags": ["/admin/analytics"],
                "summary": "Traffic, device mix and top posts",
                "parameters": [
                    {"type": "string", "default": "7d", "description": "today, 7d, 30d or year", "name": "period", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entity.AdminAnalyticsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/admin/experiments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["/admin/experiments"],
                "summary": "List experiments",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/wrapper.ResponseWrapper"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["/admin/experiments"],
                "summary": "Create an experiment",
                "parameters": [
                    {"description": "Experiment", "name": "experiment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.CreateExperimentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/wrapper.ResponseWrapper"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/admin/experiments/{slug}/status": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["/admin/experiments"],
                "summary": "Change experiment status",
                "parameters": [
                    {"type": "string", "description": "Experiment slug", "name": "slug", "in": "path", "required": true},
                    {"description": "New status", "name": "status", "in": "body", "required": true, "schema": {"$ref": "#/definitions/entity.UpdateExperimentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wrapper.ResponseWrapper"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        },
        "/admin/experiments/{slug}/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["/admin/experiments"],
                "summary": "Per-variant results",
                "parameters": [
                    {"type": "string", "description": "Experiment slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wrapper.ResponseWrapper"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/wrapper.ErrorWrapper"}}
                }
            }
        }
    },
    "definitions": {
        "entity.TrackViewRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["init", "heartbeat"]},
                "targetRef": {"type": "string"},
                "path": {"type": "string"},
                "referrer": {"type": "string"},
                "userAgent": {"type": "string"},
                "visitId": {"type": "string"},
                "seconds": {"type": "integer"}
            }
        },
        "entity.InitVisitResponse": {"type": "object", "properties": {"visitId": {"type": "string"}}},
        "entity.OKResponse": {"type": "object", "properties": {"ok": {"type": "boolean"}}},
        "entity.RecordEventRequest": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "eventType": {"type": "string"},
                "targetType": {"type": "string", "enum": ["post", "software", "category", "page", "none"]},
                "targetId": {"type": "string"},
                "targetSlug": {"type": "string"},
                "metadata": {"type": "object"}
            }
        },
        "entity.RecordConversionRequest": {
            "type": "object",
            "properties": {
                "experimentSlug": {"type": "string"},
                "sessionId": {"type": "string"},
                "conversionType": {"type": "string"},
                "conversionValue": {"type": "number"},
                "metadata": {"type": "object"}
            }
        },
        "entity.CreateExperimentRequest": {
            "type": "object",
            "required": ["slug", "variants"],
            "properties": {
                "slug": {"type": "string"},
                "name": {"type": "string"},
                "status": {"type": "string", "enum": ["draft", "active", "completed"]},
                "variants": {"type": "array", "items": {"$ref": "#/definitions/entity.Variant"}}
            }
        },
        "entity.UpdateExperimentStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {"status": {"type": "string", "enum": ["draft", "active", "completed"]}}
        },
        "entity.Variant": {"type": "object", "properties": {"id": {"type": "string"}, "weight": {"type": "integer"}}},
        "entity.VariantResponse": {"type": "object", "properties": {"variant": {"type": "string"}}},
        "entity.SuccessResponse": {"type": "object", "properties": {"success": {"type": "boolean"}}},
        "entity.DailyTraffic": {"type": "object", "properties": {"date": {"type": "string"}, "views": {"type": "integer"}}},
        "entity.TopPost": {
            "type": "object",
            "properties": {"id": {"type": "string"}, "title": {"type": "string"}, "views": {"type": "integer"}, "avgDuration": {"type": "integer"}}
        },
        "entity.AdminAnalyticsResponse": {
            "type": "object",
            "properties": {
                "period": {"type": "string"},
                "range": {"type": "string"},
                "traffic": {"type": "array", "items": {"$ref": "#/definitions/entity.DailyTraffic"}},
                "devices": {"type": "object", "additionalProperties": {"type": "integer"}},
                "topPosts": {"type": "array", "items": {"$ref": "#/definitions/entity.TopPost"}},
                "totalViews": {"type": "integer"},
                "truncated": {"type": "boolean"}
            }
        },
        "wrapper.ErrorWrapper": {"type": "object", "properties": {"message": {"type": "string"}, "success": {"type": "boolean"}}},
        "wrapper.ResponseWrapper": {"type": "object", "properties": {"data": {}, "success": {"type": "boolean"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tracking API",
	Description:      "Visit tracking, events and experiments",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
