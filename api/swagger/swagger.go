package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Substitution API",
        "description": "Teacher availability and substitution conflict engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Substitutions", "description": "Substitute assignment, availability and history"}
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
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/substitutions": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List substitution history",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "substituteId", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Substitutions"],
                "summary": "Assign substitute",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignSubstituteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Occurrence or teacher not found"},
                    "409": {"description": "Occurrence already substituted"},
                    "422": {"description": "Substitute unavailable"}
                }
            }
        },
        "/substitutions/{occurrenceId}": {
            "delete": {
                "tags": ["Substitutions"],
                "summary": "Remove substitute",
                "parameters": [
                    {"name": "occurrenceId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Occurrence not found"},
                    "409": {"description": "No substitute to remove"}
                }
            }
        },
        "/substitutions/available-teachers": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "List teachers free in a window",
                "parameters": [
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "startTime", "in": "query", "required": true, "type": "string"},
                    {"name": "endTime", "in": "query", "required": true, "type": "string"},
                    {"name": "excludeTeacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/check-availability/{teacherId}": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Check teacher availability",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "startTime", "in": "query", "required": true, "type": "string"},
                    {"name": "endTime", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/stats": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Aggregate substitution statistics",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/substitutions/export": {
            "get": {
                "tags": ["Substitutions"],
                "summary": "Export substitution history",
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "substituteId", "in": "query", "type": "string"},
                    {"name": "startDate", "in": "query", "type": "string"},
                    {"name": "endDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "AssignSubstituteRequest": {
            "type": "object",
            "properties": {
                "occurrence_id": {"type": "string"},
                "substitute_teacher_id": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["occurrence_id", "substitute_teacher_id", "reason"]
        },
        "Availability": {
            "type": "object",
            "properties": {
                "is_available": {"type": "boolean"},
                "reason": {"type": "string"},
                "conflict": {"$ref": "#/definitions/OccurrenceCommitment"}
            }
        },
        "OccurrenceCommitment": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "date": {"type": "string"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"},
                "subject_name": {"type": "string"},
                "group_name": {"type": "string"}
            }
        },
        "SubstitutionStats": {
            "type": "object",
            "properties": {
                "total_substitutions": {"type": "integer"},
                "by_teacher": {"type": "object"},
                "by_substitute": {"type": "object"},
                "by_reason": {"type": "object"}
            }
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
