// Package docs registra el documento Swagger 2.0 de la API en swag.
// Mantener en sincronía con las anotaciones de cmd/api e internal/interfaces/http.
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
        "/api/sunat/facturas/{periodo}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Solicita la exportación TXT a SIRE, espera a que SUNAT la procese y devuelve el contenido del archivo.",
                "produces": ["application/json"],
                "tags": ["sunat"],
                "summary": "Propuesta RCE del periodo",
                "parameters": [
                    {"type": "string", "example": "202512", "description": "Periodo tributario YYYYMM", "name": "periodo", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ReporteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sunat/comprobantes/{tipo}/{serie}/{numero}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Consulta en SEE el comprobante del RUC configurado y devuelve la respuesta de SUNAT.",
                "produces": ["application/json"],
                "tags": ["sunat"],
                "summary": "XML/CDR de un comprobante",
                "parameters": [
                    {"type": "string", "example": "01", "description": "Tipo de comprobante (01, 03, 07, 08)", "name": "tipo", "in": "path", "required": true},
                    {"type": "string", "example": "F001", "description": "Serie", "name": "serie", "in": "path", "required": true},
                    {"type": "string", "example": "123", "description": "Número correlativo", "name": "numero", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ComprobanteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sunat/runs/{periodo}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sunat"],
                "summary": "Bitácora de ejecuciones del periodo",
                "parameters": [
                    {"type": "string", "description": "Periodo tributario YYYYMM", "name": "periodo", "in": "path", "required": true},
                    {"type": "integer", "description": "Máximo de ejecuciones (1-100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.RunListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.ReporteResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "periodo": {"type": "string"},
                "contenido": {"type": "string"}
            }
        },
        "dto.ComprobanteResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "tipo": {"type": "string"},
                "serie": {"type": "string"},
                "numero": {"type": "string"},
                "data": {"type": "object"}
            }
        },
        "dto.RunResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "periodo": {"type": "string"},
                "num_ticket": {"type": "string"},
                "status": {"type": "string"},
                "error_kind": {"type": "string"},
                "error_message": {"type": "string"},
                "bytes": {"type": "integer"},
                "chars": {"type": "integer"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        },
        "dto.RunListResponse": {
            "type": "object",
            "properties": {
                "periodo": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/dto.RunResponse"}}
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
	Title:            "SIRE Reportes API",
	Description:      "Descarga de la propuesta RCE desde la API SIRE de SUNAT.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
