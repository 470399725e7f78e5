// Package auth registers the service's OpenAPI document with swag so
// /swagger/ can serve it. Regenerate with:
//
//	swag init -g internal/auth/http/router.go -o api/auth --parseDependency
package auth

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/doorman"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Create an account",
                "parameters": [
                    {"description": "New account", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/authsdk.MessageResponse"}},
                    "400": {"description": "Invalid email or password shorter than 8 characters", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "422": {"description": "Malformed body or missing field", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in with a password",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session cookie set", "schema": {"$ref": "#/definitions/authsdk.LoginResponse"}},
                    "206": {"description": "Second factor required", "schema": {"$ref": "#/definitions/authsdk.LoginResponse"}},
                    "400": {"description": "Invalid email or password", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "401": {"description": "Incorrect credentials", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "422": {"description": "Malformed body or missing field", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/verify-2fa": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Complete a login with its second factor",
                "parameters": [
                    {"description": "Login attempt and code", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.VerifyTwoFactorRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session cookie set", "schema": {"$ref": "#/definitions/authsdk.MessageResponse"}},
                    "400": {"description": "Invalid email, attempt id or code format", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "401": {"description": "Unknown, expired or wrong attempt", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "422": {"description": "Malformed body or missing field", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/verify-token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Validate a session token",
                "parameters": [
                    {"description": "Token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/authsdk.VerifyTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.TokenInfoResponse"}},
                    "401": {"description": "Malformed, expired or revoked", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "422": {"description": "Malformed body or missing field", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/authsdk.MessageResponse"}},
                    "400": {"description": "No session cookie", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "401": {"description": "Malformed, expired or already revoked", "schema": {"$ref": "#/definitions/authsdk.APIError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/authsdk.APIError"}}
                }
            }
        },
        "/.well-known/jwks.json": {
            "get": {
                "produces": ["application/json"],
                "tags": ["well-known"],
                "summary": "Get JWKS",
                "responses": {
                    "200": {"description": "The JSON Web Key Set", "schema": {"$ref": "#/definitions/authsdk.JWKSResponse"}}
                }
            }
        },
        "/livez": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness Check Endpoint",
                "responses": {
                    "200": {"description": "status, uptime, version, checks", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}},
                    "503": {"description": "service not ready", "schema": {"$ref": "#/definitions/authsdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "authsdk.APIError": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "authsdk.SignupRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "a@x.com"},
                "password": {"type": "string", "example": "password123"},
                "requires2FA": {"type": "boolean", "example": false}
            }
        },
        "authsdk.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "a@x.com"},
                "password": {"type": "string", "example": "password123"}
            }
        },
        "authsdk.VerifyTwoFactorRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "b@x.com"},
                "loginAttemptId": {"type": "string", "example": "9a0a3b3e-5f4c-4c2f-9a53-0c1f8c5f3a1b"},
                "2FACode": {"type": "string", "example": "042917"}
            }
        },
        "authsdk.VerifyTokenRequest": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "authsdk.MessageResponse": {
            "type": "object",
            "properties": {"message": {"type": "string", "example": "User created successfully!"}}
        },
        "authsdk.LoginResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "2FA required"},
                "loginAttemptId": {"type": "string", "example": "9a0a3b3e-5f4c-4c2f-9a53-0c1f8c5f3a1b"},
                "deliveryFailed": {"type": "boolean"}
            }
        },
        "authsdk.TokenInfoResponse": {
            "type": "object",
            "properties": {
                "sub": {"type": "string", "example": "a@x.com"},
                "exp": {"type": "integer", "example": 1767225600}
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "stores": {"type": "string"},
                "signer": {"type": "string"}
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "uptime": {"type": "string", "example": "1h23m45s"},
                "version": {"type": "string", "example": "dev"},
                "checks": {"$ref": "#/definitions/authsdk.HealthChecks"}
            }
        },
        "authsdk.JWKSResponse": {
            "type": "object",
            "properties": {
                "keys": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "kty": {"type": "string", "example": "OKP"},
                            "use": {"type": "string", "example": "sig"},
                            "alg": {"type": "string", "example": "EdDSA"},
                            "kid": {"type": "string"},
                            "crv": {"type": "string", "example": "Ed25519"},
                            "x": {"type": "string"}
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Doorman Authentication Service API",
	Description:      "Email and password authentication with an optional emailed second factor.\n\nSessions are Ed25519-signed JWTs carried in an HttpOnly cookie and can be verified offline using the JWKS endpoint.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
