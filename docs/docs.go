// Package docs registra la especificación OpenAPI servida en /swagger/*.
// Se mantiene a mano junto con las anotaciones de los handlers.
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
        "/health": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["ops"],
                "summary": "Liveness",
                "responses": {
                    "200": {"description": "ok", "schema": {"type": "string"}}
                }
            }
        },
        "/login/prescribers": {
            "post": {
                "description": "Verifica email y contraseña dentro del pool del rol y devuelve un token de sesión (72h).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login de prescriptor",
                "parameters": [
                    {"description": "Credenciales", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/actors.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/actors.loginResponse"}},
                    "400": {"description": "invalid json", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "login failed", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/login/dispensers": {
            "post": {
                "description": "Verifica email y contraseña dentro del pool del rol y devuelve un token de sesión (72h).",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login de dispensador",
                "parameters": [
                    {"description": "Credenciales", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/actors.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/actors.loginResponse"}},
                    "400": {"description": "invalid json", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "login failed", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/prescribers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Listar prescriptores",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/actors.actorResponse"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Crear prescriptor",
                "parameters": [
                    {"description": "Datos del actor", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/actors.createActorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/actors.actorResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "email already registered", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/prescribers/{actorID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Obtener prescriptor",
                "parameters": [
                    {"type": "string", "description": "ID del actor", "name": "actorID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/actors.actorResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Solo se modifican los campos presentes. Campos desconocidos responden 400.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Editar prescriptor",
                "parameters": [
                    {"type": "string", "description": "ID del actor", "name": "actorID", "in": "path", "required": true},
                    {"description": "Campos a modificar", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/actors.updateActorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/actors.actorResponse"}},
                    "400": {"description": "invalid json / invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "email already registered", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Un actor referenciado por alguna receta no se puede borrar (409).",
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Borrar prescriptor",
                "parameters": [
                    {"type": "string", "description": "ID del actor", "name": "actorID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "actor is referenced by prescriptions", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/dispensers": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Listar dispensadores",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/actors.actorResponse"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Crear dispensador",
                "parameters": [
                    {"description": "Datos del actor", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/actors.createActorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/actors.actorResponse"}},
                    "400": {"description": "invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "email already registered", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/dispensers/{actorID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Obtener dispensador",
                "parameters": [
                    {"type": "string", "description": "ID del actor", "name": "actorID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/actors.actorResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Solo se modifican los campos presentes. Campos desconocidos responden 400.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Editar dispensador",
                "parameters": [
                    {"type": "string", "description": "ID del actor", "name": "actorID", "in": "path", "required": true},
                    {"description": "Campos a modificar", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/actors.updateActorRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/actors.actorResponse"}},
                    "400": {"description": "invalid json / invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "email already registered", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Un actor referenciado por alguna receta no se puede borrar (409).",
                "produces": ["application/json"],
                "tags": ["actors"],
                "summary": "Borrar dispensador",
                "parameters": [
                    {"type": "string", "description": "ID del actor", "name": "actorID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "actor is referenced by prescriptions", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/prescriptions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["prescriptions"],
                "summary": "Listar recetas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/prescriptions.prescriptionResponse"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Crea una receta a nombre del prescriptor logueado. Solo sesiones de prescriptor; un dispensador recibe 401 \"incorrect user type\".",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prescriptions"],
                "summary": "Emitir receta",
                "parameters": [
                    {"description": "Datos de la receta; drug es obligatorio", "name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/prescriptions.issueRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/prescriptions.prescriptionResponse"}},
                    "400": {"description": "invalid json / invalid input", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "unauthorized / incorrect user type", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "prescriber not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/prescriptions/{prescriptionID}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["prescriptions"],
                "summary": "Obtener receta",
                "parameters": [
                    {"type": "string", "description": "ID de la receta", "name": "prescriptionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/prescriptions.prescriptionResponse"}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["prescriptions"],
                "summary": "Borrar receta",
                "parameters": [
                    {"type": "string", "description": "ID de la receta", "name": "prescriptionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "401": {"description": "unauthorized / incorrect user type", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/prescriptions/{prescriptionID}/fill": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Marca la receta como dispensada por el dispensador logueado. Primer fill gana: un segundo intento devuelve 409 y no cambia el dispensador guardado.",
                "produces": ["application/json"],
                "tags": ["prescriptions"],
                "summary": "Dispensar receta",
                "parameters": [
                    {"type": "string", "description": "ID de la receta", "name": "prescriptionID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/prescriptions.prescriptionResponse"}},
                    "401": {"description": "unauthorized / incorrect user type", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "not found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "prescription already filled", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/prescription-history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Recetas emitidas por quien llama; vacío para dispensadores.",
                "produces": ["application/json"],
                "tags": ["prescriptions"],
                "summary": "Historial de recetas emitidas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/prescriptions.prescriptionResponse"}}},
                    "401": {"description": "unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "actors.loginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "actors.loginUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "actors.loginResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/actors.loginUser"},
                "token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "actors.createActorRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "actors.updateActorRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "actors.actorResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "type": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "issued_prescriptions": {"type": "array", "items": {"type": "string"}}
            }
        },
        "prescriptions.issueRequest": {
            "type": "object",
            "properties": {
                "drug": {"type": "string"},
                "dosage": {"type": "string"},
                "quantity": {"type": "integer"},
                "instructions": {"type": "string"},
                "patient_name": {"type": "string"},
                "notes": {"type": "string"}
            }
        },
        "prescriptions.actorSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "prescriptions.prescriptionResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "drug": {"type": "string"},
                "dosage": {"type": "string"},
                "quantity": {"type": "integer"},
                "instructions": {"type": "string"},
                "patient_name": {"type": "string"},
                "notes": {"type": "string"},
                "issued_by": {"$ref": "#/definitions/prescriptions.actorSummary"},
                "filled_by": {"$ref": "#/definitions/prescriptions.actorSummary"},
                "issued_at": {"type": "string"},
                "filled_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer <token> devuelto por /login/*",
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
	Title:            "Prescription Ledger API",
	Description:      "Registro de recetas: prescriptores emiten, dispensadores despachan.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
