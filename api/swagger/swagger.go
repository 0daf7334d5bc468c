package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AccessPlan API",
        "description": "Disability accommodation management for university students",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, tokens and password management"},
        {"name": "Users", "description": "User accounts and role computation"},
        {"name": "Campaigns", "description": "Request campaign windows"},
        {"name": "Requests", "description": "Accommodation request lifecycle"},
        {"name": "Beneficiaries", "description": "Beneficiary periods, grants and opinions"},
        {"name": "Accommodations", "description": "Accommodation grant catalogue"},
        {"name": "Intervenants", "description": "Support intervenants, forfaits and events"},
        {"name": "Rates", "description": "Hourly rate timelines"},
        {"name": "Parameters", "description": "Time-sliced configuration parameters"},
        {"name": "Exports", "description": "CSV and PDF exports"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Tokens issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/requests": {
            "post": {
                "tags": ["Requests"],
                "summary": "Submit request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitRequestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Request created"},
                    "409": {"description": "Requester already holds a request in the campaign"},
                    "422": {"description": "Campaign closed"}
                }
            }
        },
        "/requests/{id}/transition": {
            "post": {
                "tags": ["Requests"],
                "summary": "Transition request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TransitionRequestRequest"}}
                ],
                "responses": {
                    "200": {"description": "State recorded with history entry"}
                }
            }
        },
        "/beneficiaries/{id}/grants/{grantId}": {
            "put": {
                "tags": ["Beneficiaries"],
                "summary": "Attach grant to period",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "grantId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Attached"},
                    "410": {"description": "Period ended before today"}
                }
            }
        },
        "/rates/{eventTypeId}/current": {
            "get": {
                "tags": ["Rates"],
                "summary": "Resolve current rate",
                "parameters": [
                    {"name": "eventTypeId", "in": "path", "required": true, "type": "string"},
                    {"name": "at", "in": "query", "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Applicable rate entry"},
                    "404": {"description": "No rate applies at this date"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "SubmitRequestRequest": {
            "type": "object",
            "properties": {
                "campaign_id": {"type": "string"},
                "comment": {"type": "string"}
            },
            "required": ["campaign_id"]
        },
        "TransitionRequestRequest": {
            "type": "object",
            "properties": {
                "new_state": {"type": "string"},
                "comment": {"type": "string"},
                "assigned_profile_id": {"type": "string"}
            },
            "required": ["new_state"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
