package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Thesis Portal API",
        "description": "Backend-for-frontend of the thesis project portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Portal sessions"},
        {"name": "Dashboard", "description": "Role dashboards"},
        {"name": "Projects", "description": "Thesis project workflow"},
        {"name": "Invitations", "description": "Director and peer invitations"},
        {"name": "Meetings", "description": "Advisory meetings"},
        {"name": "Notifications", "description": "Notification feed and event stream"},
        {"name": "Catalogs", "description": "Cached reference data"},
        {"name": "Exports", "description": "Administrator project table exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Start a portal session",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Rejected credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "End the current session",
                "security": [{"BearerAuth": []}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Describe the current session",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Render the role dashboard",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "refresh", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/dashboard/reload": {
            "post": {
                "tags": ["Dashboard"],
                "summary": "Retry a failed dashboard load",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Dashboard has not failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/modal": {
            "post": {
                "tags": ["Dashboard"],
                "summary": "Open or close a dashboard modal",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ModalRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/projects": {
            "post": {
                "tags": ["Projects"],
                "summary": "Create the student's project",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateProjectRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/projects/actions": {
            "get": {
                "tags": ["Projects"],
                "summary": "List the project actions of the session role",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/projects/{id}": {
            "get": {
                "tags": ["Projects"],
                "summary": "Get a project",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/history": {
            "get": {
                "tags": ["Projects"],
                "summary": "Project status history",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/projects/{id}/status": {
            "post": {
                "tags": ["Projects"],
                "summary": "Apply a status change event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangeStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/projects/{id}/audit": {
            "get": {
                "tags": ["Projects"],
                "summary": "Portal audit trail of a project",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/projects/{id}/meetings": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Request an advisory meeting",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeetingRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/invitations/director": {
            "post": {
                "tags": ["Invitations"],
                "summary": "Invite a director to the student's project",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DirectorInviteRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Invitations"],
                "summary": "Cancel the pending director invitation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CancelDirectorInviteRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/invitations/peer": {
            "post": {
                "tags": ["Invitations"],
                "summary": "Invite a fellow student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PeerInviteRequest"}}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/students/lookup": {
            "get": {
                "tags": ["Invitations"],
                "summary": "Exact student lookup by cedula or code",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "cedula", "in": "query", "type": "string"},
                    {"name": "codigo", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/directors": {
            "get": {
                "tags": ["Invitations"],
                "summary": "Search professors eligible as director",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/current": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Latest unread and pending snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/stream": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Server-sent notification snapshots",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"name": "access_token", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Event stream"}}
            }
        },
        "/notifications/{id}/respond": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Accept or reject an invitation",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RespondInvitationRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark a notification read",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/meetings": {
            "get": {
                "tags": ["Meetings"],
                "summary": "List meetings of the session user",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/meetings/{id}/details": {
            "post": {
                "tags": ["Meetings"],
                "summary": "Register meeting minutes",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MeetingDetailsRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "502": {"description": "Partially applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalogs/modalities": {
            "get": {"tags": ["Catalogs"], "summary": "Project modalities", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/catalogs/research-lines": {
            "get": {"tags": ["Catalogs"], "summary": "Research lines", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/catalogs/areas": {
            "get": {"tags": ["Catalogs"], "summary": "Research areas", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/catalogs/areas/{id}/research-lines": {
            "get": {
                "tags": ["Catalogs"],
                "summary": "Research lines of an area",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/catalogs/status-events": {
            "get": {"tags": ["Catalogs"], "summary": "Status change events", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/catalogs/statuses": {
            "get": {"tags": ["Catalogs"], "summary": "Project statuses", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}}
        },
        "/catalogs/cache": {
            "delete": {"tags": ["Catalogs"], "summary": "Drop cached catalogs", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/exports": {
            "get": {
                "tags": ["Exports"],
                "summary": "List recent exports",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a project table export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "cedula": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["cedula", "password"]
        },
        "ModalRequest": {
            "type": "object",
            "properties": {
                "tipo": {"type": "string", "enum": ["cambio_estado", "historial", "reunion", "detalle"]},
                "proyectoId": {"type": "integer"},
                "abierto": {"type": "boolean"}
            },
            "required": ["tipo"]
        },
        "ChangeStatusRequest": {
            "type": "object",
            "properties": {
                "tipoEventoId": {"type": "integer"},
                "descripcion": {"type": "string"}
            },
            "required": ["tipoEventoId"]
        },
        "CreateProjectRequest": {
            "type": "object",
            "properties": {
                "titulo": {"type": "string"},
                "descripcion": {"type": "string"},
                "objetivoGeneral": {"type": "string"},
                "modalidadId": {"type": "integer"},
                "lineaInvestigacionId": {"type": "integer"}
            },
            "required": ["titulo", "descripcion", "objetivoGeneral", "modalidadId", "lineaInvestigacionId"]
        },
        "DirectorInviteRequest": {
            "type": "object",
            "properties": {
                "directorCedula": {"type": "string"},
                "tipoDirector": {"type": "string", "enum": ["PROFESOR", "EXTERNO"]}
            },
            "required": ["directorCedula", "tipoDirector"]
        },
        "CancelDirectorInviteRequest": {
            "type": "object",
            "properties": {
                "invitacionId": {"type": "integer"},
                "confirmar": {"type": "boolean"}
            },
            "required": ["invitacionId"]
        },
        "PeerInviteRequest": {
            "type": "object",
            "properties": {
                "estudianteInvitadoCedula": {"type": "string"},
                "cedulaBusqueda": {"type": "string"},
                "codigoBusqueda": {"type": "string"}
            },
            "required": ["estudianteInvitadoCedula"]
        },
        "RespondInvitationRequest": {
            "type": "object",
            "properties": {
                "respuesta": {"type": "string", "enum": ["ACEPTADA", "RECHAZADA"]}
            },
            "required": ["respuesta"]
        },
        "MeetingRequest": {
            "type": "object",
            "properties": {
                "fecha": {"type": "string", "format": "date"},
                "hora": {"type": "string"},
                "duracionMinutos": {"type": "integer"},
                "tipo": {"type": "string", "enum": ["VIRTUAL", "PRESENCIAL", "CORREO", "TELEFONICA"]},
                "temasPropuestos": {"type": "string"},
                "observaciones": {"type": "string"}
            },
            "required": ["fecha", "hora"]
        },
        "MeetingDetailsRequest": {
            "type": "object",
            "properties": {
                "temasTratados": {"type": "string"},
                "acuerdos": {"type": "string"},
                "proximaReunion": {"type": "string", "format": "date"},
                "asistioEstudiante": {"type": "boolean"},
                "observaciones": {"type": "string"}
            },
            "required": ["temasTratados"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "formato": {"type": "string", "enum": ["csv", "pdf"]},
                "estados": {"type": "array", "items": {"type": "string"}},
                "titulo": {"type": "string"}
            },
            "required": ["formato"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "step": {"type": "string"}
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
