// Package docs is generated by swag from the handler annotations.
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
        "/events/{id}/seats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["seats"],
                "summary": "Seat map of an event",
                "parameters": [
                    {"type": "string", "description": "Event ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "STAGE or BALCONY", "name": "class", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/add-seat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Opens a session on the first claim and restarts the session lease on every claim",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Claim a seat for the caller's reservation",
                "parameters": [
                    {"description": "Event and seat", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/reservations.AddSeatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Get a reservation",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}/finish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Seal a reservation and issue its code",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}/paid": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Mark a finished reservation as paid",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["reservations"],
                "summary": "Cancel a reservation and release its seats",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}/view-confirmation": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "tags": ["confirmations"],
                "summary": "Render the confirmation PDF of a finished reservation",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/reservations/{id}/send-confirmation": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["confirmations"],
                "summary": "Mail the confirmation to the reservation owner",
                "parameters": [{"type": "string", "description": "Reservation ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        },
        "/tokens/validate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tokens"],
                "summary": "Redeem an invitation token",
                "parameters": [
                    {"description": "Token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/tokens.ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}},
                    "410": {"description": "Gone", "schema": {"$ref": "#/definitions/response.StandardApiResponse"}}
                }
            }
        }
    },
    "definitions": {
        "reservations.AddSeatRequest": {
            "type": "object",
            "required": ["event_id", "seat_id"],
            "properties": {
                "event_id": {"type": "string"},
                "seat_id": {"type": "string"}
            }
        },
        "tokens.ValidateRequest": {
            "type": "object",
            "required": ["hashcode"],
            "properties": {
                "hashcode": {"type": "string", "maxLength": 10}
            }
        },
        "response.StandardApiResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "status_code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {},
                "errors": {}
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Seatline API",
	Description:      "Seat reservation sessions for a single venue.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
