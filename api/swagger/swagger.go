package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Driving School Booking API",
        "description": "Lesson and exam bookings with conflict detection, a monthly calendar and reminder delivery.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Bookings", "description": "Booking widget and booking management"},
        {"name": "Calendar", "description": "Monthly booking views and exports"},
        {"name": "Reminders", "description": "Deferred notifications and the due sweep"},
        {"name": "Dashboard", "description": "Landing summary"}
    ],
    "paths": {
        "/bookings/events": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Calendar widget feed",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/CalendarEvent"}}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/BareError"}}
                }
            }
        },
        "/bookings/calendar": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Bookings of a month grouped by date",
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/bookings/calendar/export": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Download a month of bookings",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "year", "in": "query", "type": "integer"},
                    {"name": "month", "in": "query", "type": "integer"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/bookings/check-conflict": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Check whether a slot is free",
                "parameters": [
                    {"name": "instructor_id", "in": "query", "type": "string", "required": true},
                    {"name": "scheduled_date", "in": "query", "type": "string", "required": true},
                    {"name": "start_time", "in": "query", "type": "string", "required": true},
                    {"name": "end_time", "in": "query", "type": "string", "required": true},
                    {"name": "vehicle_id", "in": "query", "type": "string"},
                    {"name": "ignore_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ConflictCheckResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/BareError"}}
                }
            }
        },
        "/bookings": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Create booking",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "X-CSRF-Token", "in": "header", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/BookingSavedResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/BareError"}},
                    "409": {"description": "Slot taken", "schema": {"$ref": "#/definitions/BareError"}}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get booking",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Bookings"],
                "summary": "Rewrite booking",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "X-CSRF-Token", "in": "header", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookingSavedResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/BareError"}},
                    "409": {"description": "Slot taken", "schema": {"$ref": "#/definitions/BareError"}}
                }
            }
        },
        "/bookings/{id}/status": {
            "patch": {
                "tags": ["Bookings"],
                "summary": "Change booking status",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "X-CSRF-Token", "in": "header", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"status": {"type": "string", "enum": ["scheduled", "completed", "cancelled"]}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders": {
            "get": {
                "tags": ["Reminders"],
                "summary": "List reminders",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "sent"]},
                    {"name": "recipientUserId", "in": "query", "type": "string"},
                    {"name": "relatedType", "in": "query", "type": "string", "enum": ["booking", "invoice"]},
                    {"name": "relatedId", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reminders"],
                "summary": "Queue a reminder",
                "consumes": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReminderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/{id}": {
            "get": {
                "tags": ["Reminders"],
                "summary": "Get reminder",
                "parameters": [{"name": "id", "in": "path", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reminders/run": {
            "post": {
                "tags": ["Reminders"],
                "summary": "Dispatch every due reminder now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Landing dashboard",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "BookingRequest": {
            "type": "object",
            "required": ["enrollment_id", "instructor_id", "event_type", "scheduled_date", "start_time", "end_time"],
            "properties": {
                "enrollment_id": {"type": "string"},
                "instructor_id": {"type": "string"},
                "vehicle_id": {"type": "string"},
                "branch_id": {"type": "string"},
                "event_type": {"type": "string", "enum": ["lesson", "exam", "assessment"]},
                "scheduled_date": {"type": "string", "example": "2025-03-05"},
                "start_time": {"type": "string", "example": "09:00"},
                "end_time": {"type": "string", "example": "10:00"},
                "status": {"type": "string", "enum": ["scheduled", "completed", "cancelled"]},
                "topic": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "BookingSavedResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "ConflictCheckResponse": {
            "type": "object",
            "properties": {
                "conflict": {"type": "boolean"}
            }
        },
        "CalendarEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string", "example": "Lesson: Siti"},
                "start": {"type": "string", "example": "2025-03-05T09:00:00"},
                "end": {"type": "string", "example": "2025-03-05T10:00:00"},
                "student": {"type": "string"},
                "instructor": {"type": "string"},
                "status": {"type": "string"},
                "course": {"type": "string"}
            }
        },
        "CreateReminderRequest": {
            "type": "object",
            "required": ["relatedType", "relatedId", "recipientUserId", "reminderType", "message", "sendOn"],
            "properties": {
                "relatedType": {"type": "string", "enum": ["booking", "invoice"]},
                "relatedId": {"type": "string"},
                "recipientUserId": {"type": "string"},
                "channel": {"type": "string", "enum": ["sms", "email", "in-app"]},
                "reminderType": {"type": "string", "example": "invoice_due"},
                "message": {"type": "string"},
                "sendOn": {"type": "string", "example": "2025-03-04"}
            }
        },
        "BareError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"}
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
