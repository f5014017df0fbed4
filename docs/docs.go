// Package docs registers the OpenAPI document served at /api/v1/swagger.json
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
        "/api/v1/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Account created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Validation error or role not allowed", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "Email or national ID already registered", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Login",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Account inactive or unverified", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "429": {"description": "Too many failed attempts", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh tokens",
                "parameters": [{"in": "body", "name": "request", "schema": {"$ref": "#/definitions/dto.RefreshRequest"}}],
                "responses": {
                    "200": {"description": "Tokens refreshed", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {"tags": ["Authentication"], "summary": "Logout", "responses": {"200": {"description": "Logged out"}}}
        },
        "/api/v1/auth/verify-email": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Verify email",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.VerifyEmailRequest"}}],
                "responses": {
                    "200": {"description": "Email verified", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Authentication"],
                "summary": "Current account",
                "responses": {"200": {"description": "Current account"}, "401": {"description": "Unauthenticated"}}
            }
        },
        "/api/v1/kyc/initiate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["KYC"],
                "summary": "Initiate KYC",
                "parameters": [{"in": "body", "name": "request", "schema": {"$ref": "#/definitions/dto.InitiateKYCRequest"}}],
                "responses": {"200": {"description": "Session opened"}, "503": {"description": "Provider unavailable"}}
            }
        },
        "/api/v1/admin/accounts/{uuid}/activation": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Set account activation",
                "parameters": [
                    {"type": "string", "in": "path", "name": "uuid", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SetActivationRequest"}}
                ],
                "responses": {"200": {"description": "Activation updated"}, "404": {"description": "Account not found"}}
            }
        },
        "/api/v1/admin/settings/{category}/{key}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Upsert system setting",
                "parameters": [
                    {"type": "string", "in": "path", "name": "category", "required": true},
                    {"type": "string", "in": "path", "name": "key", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpsertSettingRequest"}}
                ],
                "responses": {"200": {"description": "Setting stored"}, "400": {"description": "Invalid setting"}}
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {},
                "error": {}
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": ["name", "email", "password", "role", "nationalId"],
            "properties": {
                "name": {"type": "string", "example": "Ana Silva"},
                "email": {"type": "string", "example": "ana@example.com"},
                "password": {"type": "string", "example": "Str0ngP@ss!"},
                "role": {"type": "string", "example": "TENANT"},
                "nationalId": {"type": "string", "example": "12345678901"},
                "phone": {"type": "string"},
                "address": {"type": "string"},
                "city": {"type": "string"},
                "businessName": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dto.RefreshRequest": {
            "type": "object",
            "properties": {"refreshToken": {"type": "string"}}
        },
        "dto.VerifyEmailRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "dto.InitiateKYCRequest": {
            "type": "object",
            "properties": {"level": {"type": "string", "enum": ["basic", "standard", "enhanced"]}}
        },
        "dto.SetActivationRequest": {
            "type": "object",
            "required": ["active"],
            "properties": {"active": {"type": "boolean"}}
        },
        "dto.UpsertSettingRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {
                "value": {"type": "string"},
                "isActive": {"type": "boolean"},
                "description": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"https", "http"},
	Title:            "Ejare API",
	Description:      "Identity and onboarding API for the Ejare rental marketplace",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
