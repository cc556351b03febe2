// Package docs holds the swagger template served at /api/v1/swagger.json.
// Keep it in sync with the @ annotations on the handlers.
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
        "/": {
            "get": {
                "summary": "Landing page",
                "tags": [
                    "Site"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.LandingResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/contact": {
            "post": {
                "summary": "Submit contact form",
                "description": "Validates and stores a contact request with an optional attachment, then notifies staff and the applicant",
                "tags": [
                    "Contact"
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Name",
                        "name": "name",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "WhatsApp number",
                        "name": "whatsapp",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Email",
                        "name": "email",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Project description",
                        "name": "project_description",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "file",
                        "description": "Optional attachment",
                        "name": "attachment",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Contact stored",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.SubmitContactResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Validation failed",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/analytics": {
            "get": {
                "summary": "Dashboard analytics",
                "description": "Unparsable dates fall back to the last 30 days",
                "tags": [
                    "Dashboard Stats"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date_from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date_to",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.AnalyticsResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/auth/captcha/init": {
            "get": {
                "summary": "Staff captcha init",
                "description": "Initialize rotate captcha for staff login (returns base64 images and challenge ID)",
                "tags": [
                    "Dashboard Authentication"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "Captcha initialized",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.StaffCaptchaInitResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "500": {
                        "description": "Failed to initialize captcha",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/auth/login": {
            "post": {
                "summary": "Staff login",
                "description": "Verify captcha and authenticate staff with username/password",
                "tags": [
                    "Dashboard Authentication"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Staff login data",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.StaffLoginRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Login successful",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.StaffLoginResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request or captcha",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "401": {
                        "description": "Incorrect credentials or staff not found",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "403": {
                        "description": "Staff inactive",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/auth/logout": {
            "post": {
                "summary": "Staff logout",
                "tags": [
                    "Dashboard Authentication"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/auth/refresh": {
            "post": {
                "summary": "Staff token refresh",
                "tags": [
                    "Dashboard Authentication"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Refresh token",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.StaffRefreshRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.StaffSessionDTO"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/contacts": {
            "get": {
                "summary": "List contacts",
                "tags": [
                    "Dashboard Contacts"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Matches name, email, whatsapp or description",
                        "name": "search",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "read or unread",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date_from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date_to",
                        "in": "query"
                    },
                    {
                        "type": "integer",
                        "description": "Page number",
                        "name": "page",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ListContactsResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/contacts/{id}": {
            "get": {
                "summary": "Contact detail",
                "tags": [
                    "Dashboard Contacts"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Contact id or uuid",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ContactSubmissionDTO"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/contacts/{id}/attachment": {
            "get": {
                "summary": "Download contact attachment",
                "tags": [
                    "Dashboard Contacts"
                ],
                "produces": [
                    "application/octet-stream"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Contact id or uuid",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Binary file",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/contacts/{id}/notes": {
            "put": {
                "summary": "Update contact notes",
                "tags": [
                    "Dashboard Contacts"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Contact id or uuid",
                        "name": "id",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Notes",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateContactNotesRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ContactSubmissionDTO"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/export/contacts/{format}": {
            "get": {
                "summary": "Export contacts",
                "tags": [
                    "Dashboard Contacts"
                ],
                "produces": [
                    "application/octet-stream"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "csv, pdf or xlsx",
                        "name": "format",
                        "in": "path",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Matches name, email, whatsapp or description",
                        "name": "search",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "read or unread",
                        "name": "status",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date_from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date_to",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Export file",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/home": {
            "get": {
                "summary": "Dashboard home",
                "tags": [
                    "Dashboard Stats"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.DashboardResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/settings": {
            "get": {
                "summary": "Get form settings",
                "tags": [
                    "Dashboard Settings"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.FormSettingsDTO"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            },
            "put": {
                "summary": "Update form settings",
                "tags": [
                    "Dashboard Settings"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "description": "Settings",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/dto.UpdateFormSettingsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.FormSettingsDTO"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/stats/daily-summaries": {
            "get": {
                "summary": "List daily summaries",
                "tags": [
                    "Dashboard Stats"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "from",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "to",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.ListDailySummariesResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/dashboard/stats/daily-summary/recompute": {
            "post": {
                "summary": "Recompute daily summary",
                "description": "Defaults to today in the site time zone",
                "tags": [
                    "Dashboard Stats"
                ],
                "produces": [
                    "application/json"
                ],
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "YYYY-MM-DD",
                        "name": "date",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.DailySummaryDTO"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "summary": "Public site statistics",
                "description": "Totals, today's numbers, top countries, device stats and the last 7 days",
                "tags": [
                    "Stats"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.PublicStatsResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/api/v1/track": {
            "post": {
                "summary": "Track page view",
                "description": "Records a page view with resolved geo and device metadata",
                "tags": [
                    "Tracking"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Page URL",
                        "name": "request",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/dto.TrackVisitRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Visit recorded",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.TrackVisitResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Invalid request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        },
        "/portfolio/{id}": {
            "get": {
                "summary": "Portfolio detail",
                "tags": [
                    "Site"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Project ID",
                        "name": "id",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {
                                    "$ref": "#/definitions/dto.APIResponse"
                                },
                                {
                                    "type": "object",
                                    "properties": {
                                        "data": {
                                            "$ref": "#/definitions/dto.PortfolioResponse"
                                        }
                                    }
                                }
                            ]
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/dto.APIResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {
                    "type": "boolean"
                },
                "message": {
                    "type": "string"
                },
                "data": {},
                "error": {}
            }
        },
        "dto.AnalyticsResponse": {
            "type": "object",
            "properties": {
                "date_from": {
                    "type": "string"
                },
                "date_to": {
                    "type": "string"
                },
                "total_views": {
                    "type": "integer"
                },
                "distinct_visitors": {
                    "type": "integer"
                },
                "new_visitors": {
                    "type": "integer"
                },
                "total_contacts": {
                    "type": "integer"
                },
                "top_countries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.CountryCountDTO"
                    }
                },
                "devices": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DeviceCountDTO"
                    }
                },
                "browsers": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.BrowserCountDTO"
                    }
                },
                "daily": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DailyStatDTO"
                    }
                }
            }
        },
        "dto.BrowserCountDTO": {
            "type": "object",
            "properties": {
                "browser": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "dto.ContactSubmissionDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "uuid": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "whatsapp": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "project_description": {
                    "type": "string"
                },
                "has_attachment": {
                    "type": "boolean"
                },
                "attachment_name": {
                    "type": "string"
                },
                "attachment_size_mb": {
                    "type": "number"
                },
                "is_read": {
                    "type": "boolean"
                },
                "notes": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "dto.CountryCountDTO": {
            "type": "object",
            "properties": {
                "country": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "dto.DailyStatDTO": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "views": {
                    "type": "integer"
                },
                "visitors": {
                    "type": "integer"
                },
                "contacts": {
                    "type": "integer"
                }
            }
        },
        "dto.DailySummaryDTO": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "total_views": {
                    "type": "integer"
                },
                "unique_visitors": {
                    "type": "integer"
                },
                "distinct_visitors": {
                    "type": "integer"
                },
                "contact_submissions": {
                    "type": "integer"
                },
                "top_countries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.CountryCountDTO"
                    }
                },
                "desktop_views": {
                    "type": "integer"
                },
                "mobile_views": {
                    "type": "integer"
                },
                "tablet_views": {
                    "type": "integer"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "dto.DashboardResponse": {
            "type": "object",
            "properties": {
                "totals": {
                    "$ref": "#/definitions/dto.TotalsDTO"
                },
                "today": {
                    "$ref": "#/definitions/dto.PeriodTotalsDTO"
                },
                "top_countries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.CountryCountDTO"
                    }
                },
                "devices": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DeviceCountDTO"
                    }
                },
                "last_7_days": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DailyStatDTO"
                    }
                },
                "recent_contacts": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ContactSubmissionDTO"
                    }
                }
            }
        },
        "dto.DeviceCountDTO": {
            "type": "object",
            "properties": {
                "device_type": {
                    "type": "string"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "dto.FormSettingsDTO": {
            "type": "object",
            "properties": {
                "email_notifications": {
                    "type": "boolean"
                },
                "notification_email": {
                    "type": "string"
                },
                "auto_reply_enabled": {
                    "type": "boolean"
                },
                "auto_reply_subject": {
                    "type": "string"
                },
                "auto_reply_message": {
                    "type": "string"
                },
                "max_file_size_mb": {
                    "type": "integer"
                },
                "allowed_file_types": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "dto.LandingResponse": {
            "type": "object",
            "properties": {
                "total_views": {
                    "type": "integer"
                },
                "total_contacts": {
                    "type": "integer"
                }
            }
        },
        "dto.ListContactsResponse": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.ContactSubmissionDTO"
                    }
                },
                "page": {
                    "type": "integer"
                },
                "per_page": {
                    "type": "integer"
                },
                "total_pages": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "dto.ListDailySummariesResponse": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DailySummaryDTO"
                    }
                }
            }
        },
        "dto.PeriodTotalsDTO": {
            "type": "object",
            "properties": {
                "views": {
                    "type": "integer"
                },
                "visitors": {
                    "type": "integer"
                },
                "contacts": {
                    "type": "integer"
                }
            }
        },
        "dto.PortfolioResponse": {
            "type": "object",
            "properties": {
                "project_id": {
                    "type": "integer"
                }
            }
        },
        "dto.PublicStatsResponse": {
            "type": "object",
            "properties": {
                "total": {
                    "$ref": "#/definitions/dto.PeriodTotalsDTO"
                },
                "today": {
                    "$ref": "#/definitions/dto.PeriodTotalsDTO"
                },
                "top_countries": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.CountryCountDTO"
                    }
                },
                "device_stats": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DeviceCountDTO"
                    }
                },
                "recent_activity": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/dto.DailyStatDTO"
                    }
                }
            }
        },
        "dto.StaffCaptchaInitResponse": {
            "type": "object",
            "properties": {
                "challenge_id": {
                    "type": "string"
                },
                "master_image_base64": {
                    "type": "string"
                },
                "thumb_image_base64": {
                    "type": "string"
                },
                "expires_at": {
                    "type": "string"
                }
            }
        },
        "dto.StaffDTO": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "uuid": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "last_login_at": {
                    "type": "string"
                }
            }
        },
        "dto.StaffLoginRequest": {
            "type": "object",
            "required": [
                "challenge_id",
                "username",
                "password"
            ],
            "properties": {
                "challenge_id": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "user_angle": {
                    "type": "number"
                }
            }
        },
        "dto.StaffLoginResponse": {
            "type": "object",
            "properties": {
                "staff": {
                    "$ref": "#/definitions/dto.StaffDTO"
                },
                "session": {
                    "$ref": "#/definitions/dto.StaffSessionDTO"
                }
            }
        },
        "dto.StaffRefreshRequest": {
            "type": "object",
            "required": [
                "refresh_token"
            ],
            "properties": {
                "refresh_token": {
                    "type": "string"
                }
            }
        },
        "dto.StaffSessionDTO": {
            "type": "object",
            "properties": {
                "access_token": {
                    "type": "string"
                },
                "refresh_token": {
                    "type": "string"
                },
                "token_type": {
                    "type": "string"
                },
                "expires_in": {
                    "type": "integer"
                }
            }
        },
        "dto.SubmitContactResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                },
                "id": {
                    "type": "integer"
                },
                "uuid": {
                    "type": "string"
                }
            }
        },
        "dto.TotalsDTO": {
            "type": "object",
            "properties": {
                "total_views": {
                    "type": "integer"
                },
                "distinct_visitors": {
                    "type": "integer"
                },
                "total_contacts": {
                    "type": "integer"
                },
                "unread_contacts": {
                    "type": "integer"
                }
            }
        },
        "dto.TrackVisitRequest": {
            "type": "object",
            "properties": {
                "page_url": {
                    "type": "string"
                }
            }
        },
        "dto.TrackVisitResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "integer"
                },
                "country": {
                    "type": "string"
                },
                "city": {
                    "type": "string"
                },
                "region": {
                    "type": "string"
                },
                "device_type": {
                    "type": "string"
                },
                "browser": {
                    "type": "string"
                },
                "operating_system": {
                    "type": "string"
                },
                "is_unique_visitor": {
                    "type": "boolean"
                }
            }
        },
        "dto.UpdateContactNotesRequest": {
            "type": "object",
            "properties": {
                "notes": {
                    "type": "string"
                }
            }
        },
        "dto.UpdateFormSettingsRequest": {
            "type": "object",
            "required": [
                "allowed_file_types"
            ],
            "properties": {
                "email_notifications": {
                    "type": "boolean"
                },
                "notification_email": {
                    "type": "string"
                },
                "auto_reply_enabled": {
                    "type": "boolean"
                },
                "auto_reply_subject": {
                    "type": "string"
                },
                "auto_reply_message": {
                    "type": "string"
                },
                "max_file_size_mb": {
                    "type": "integer"
                },
                "allowed_file_types": {
                    "type": "string"
                }
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
	Title:            "Vitrine API",
	Description:      "Marketing site backend: visit tracking, contact intake and the staff dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
