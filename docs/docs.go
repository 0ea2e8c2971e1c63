// Package docs registers the OpenAPI description served under /swagger.
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
        "/predict": {
            "post": {
                "description": "Encodes the attributes, scales them with the scaler of the applicant's age band and returns the model estimate truncated to whole rupees. Unknown attributes are ignored; missing or unrecognised values fall back to the encoding defaults unless strict validation is enabled.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["prediction"],
                "summary": "Estimate a health insurance premium",
                "parameters": [
                    {
                        "description": "Attribute name to value, as listed by /options",
                        "name": "input",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "additionalProperties": true
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.PredictResponse"}
                    },
                    "400": {"description": "Malformed JSON, missing Age or invalid attribute values", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "413": {"description": "Request body too large", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "415": {"description": "Body is not application/json", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/errors.Response"}},
                    "500": {"description": "Artifacts are unusable", "schema": {"$ref": "#/definitions/errors.Response"}}
                }
            }
        },
        "/options": {
            "get": {
                "produces": ["application/json"],
                "tags": ["prediction"],
                "summary": "List form fields, ranges and choices",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/pricing.FormOptions"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Service health and runtime statistics",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/types.HealthResponse"}
                    }
                }
            }
        },
        "/ratelimit/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Rate limit state for the calling client",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/metrics": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["operations"],
                "summary": "Prometheus metrics",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "errors.Response": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Invalid input"},
                "code": {"type": "string", "example": "invalid_argument"},
                "category": {"type": "string", "enum": ["validation", "timeout", "rate_limit", "internal", "configuration"]},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "types.PredictResponse": {
            "type": "object",
            "properties": {
                "predicted_cost": {"type": "integer", "example": 12345},
                "formatted_cost": {"type": "string", "example": "₹12345.00"},
                "currency": {"type": "string", "example": "INR"},
                "age_band": {"type": "string", "enum": ["young", "rest"]}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "timestamp": {"type": "string"},
                "version": {"type": "string"},
                "artifact_dir": {"type": "string"},
                "services": {"type": "object", "additionalProperties": {"type": "string"}},
                "metrics": {"type": "object"}
            }
        },
        "pricing.NumericRange": {
            "type": "object",
            "properties": {
                "min": {"type": "number"},
                "max": {"type": "number"}
            }
        },
        "pricing.FormOptions": {
            "type": "object",
            "properties": {
                "numeric": {
                    "type": "object",
                    "additionalProperties": {"$ref": "#/definitions/pricing.NumericRange"}
                },
                "categorical": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Health Insurance Cost Estimator API",
	Description:      "Estimates annual health insurance premiums from demographic, lifestyle and medical attributes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
