// Package docs holds the OpenAPI document served at /swagger. It mirrors the
// handler annotations; regenerate with
// swag init -g cmd/server/main.go -o docs after changing them.
package docs

import "github.com/swaggo/swag/v2"

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
        "/bundles": {
            "post": {
                "description": "Creates a BUNDLE item and its component list; circular compositions are rejected",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bundles"],
                "summary": "Create a bundle item",
                "operationId": "createBundle",
                "parameters": [
                    {"$ref": "#/parameters/TenantID"},
                    {"$ref": "#/parameters/UserID"},
                    {
                        "description": "Bundle",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CreateBundleRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/dto.BundleResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/bundles/{id}/flatten": {
            "get": {
                "description": "Returns the leaf components of a bundle with multiplied quantities and the price/cost rollup",
                "produces": ["application/json"],
                "tags": ["bundles"],
                "summary": "Preview a flattened bundle",
                "operationId": "flattenBundle",
                "parameters": [
                    {"$ref": "#/parameters/TenantID"},
                    {"type": "string", "format": "uuid", "description": "Bundle item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/catalog.FlattenResult"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/bundles/{id}/recalculate": {
            "post": {
                "produces": ["application/json"],
                "tags": ["bundles"],
                "summary": "Recalculate a bundle's rolled-up price and cost",
                "operationId": "recalculateBundleRollup",
                "parameters": [
                    {"$ref": "#/parameters/TenantID"},
                    {"type": "string", "format": "uuid", "description": "Bundle item ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/catalog.Rollup"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/estimates/{id}/bundles": {
            "post": {
                "description": "Adds one line per flattened component under a new line group and recomputes the estimate totals",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bundles"],
                "summary": "Expand a bundle onto an estimate",
                "operationId": "applyBundleToEstimate",
                "parameters": [
                    {"$ref": "#/parameters/TenantID"},
                    {"$ref": "#/parameters/UserID"},
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Bundle",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.ApplyBundleRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/dto.AppliedBundleResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/estimates/{id}/convert-to-invoice": {
            "post": {
                "description": "Bills the estimate in FULL, PERCENTAGE or MANUAL mode and requests a payment link. An empty body bills in FULL mode.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["billing"],
                "summary": "Convert an estimate to an invoice",
                "operationId": "convertEstimateToInvoice",
                "parameters": [
                    {"$ref": "#/parameters/TenantID"},
                    {"$ref": "#/parameters/UserID"},
                    {"type": "string", "format": "uuid", "description": "Estimate ID", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Billing mode",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/dto.ConvertEstimateRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/dto.ConversionResponse"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/webhooks/payments": {
            "post": {
                "description": "Applies a successful payment to its invoice and ensures the job exists. Redeliveries are acknowledged without a second credit.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Receive a payment webhook",
                "operationId": "receivePaymentWebhook",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PaymentWebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/webhooks/payments/{provider}": {
            "post": {
                "description": "Applies a successful payment to its invoice and ensures the job exists. Redeliveries are acknowledged without a second credit.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Receive a payment webhook",
                "operationId": "receiveProviderPaymentWebhook",
                "parameters": [
                    {"type": "string", "description": "Payment provider", "name": "provider", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.PaymentWebhookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/system/info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Get system information",
                "operationId": "getSystemInfo",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/dto.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/handler.SystemInfoResponse"}}}
                            ]
                        }
                    }
                }
            }
        }
    },
    "parameters": {
        "TenantID": {"type": "string", "format": "uuid", "description": "Tenant ID", "name": "X-Tenant-ID", "in": "header", "required": true},
        "UserID": {"type": "string", "format": "uuid", "description": "Acting user ID", "name": "X-User-ID", "in": "header"}
    },
    "definitions": {
        "catalog.FlattenResult": {
            "type": "object",
            "properties": {
                "bundle_id": {"type": "string", "format": "uuid"},
                "components": {"type": "array", "items": {"$ref": "#/definitions/catalog.FlattenedComponent"}},
                "rollup": {"$ref": "#/definitions/catalog.Rollup"}
            }
        },
        "catalog.FlattenedComponent": {
            "type": "object",
            "properties": {
                "item_id": {"type": "string", "format": "uuid"},
                "source_bundle_id": {"type": "string", "format": "uuid"},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "unit": {"type": "string"},
                "quantity": {"type": "string", "example": "2"},
                "unit_price": {"type": "string", "example": "12.50"},
                "unit_cost": {"type": "string", "example": "8.00"}
            }
        },
        "catalog.Rollup": {
            "type": "object",
            "properties": {
                "unit_price": {"type": "string", "example": "125.00"},
                "unit_cost": {"type": "string", "example": "80.00"}
            }
        },
        "dto.ApplyBundleRequest": {
            "type": "object",
            "required": ["bundle_id"],
            "properties": {
                "bundle_id": {"type": "string", "format": "uuid"}
            }
        },
        "dto.AppliedBundleResponse": {
            "type": "object",
            "properties": {
                "group": {"$ref": "#/definitions/dto.LineGroupResponse"},
                "line_items": {"type": "array", "items": {"$ref": "#/definitions/dto.LineItemResponse"}},
                "estimate": {"$ref": "#/definitions/dto.EstimateResponse"}
            }
        },
        "dto.BundleComponentRequest": {
            "type": "object",
            "required": ["type"],
            "properties": {
                "type": {"type": "string", "enum": ["ITEM", "BUNDLE"]},
                "item_id": {"type": "string", "format": "uuid"},
                "bundle_id": {"type": "string", "format": "uuid"},
                "quantity": {"type": "string", "example": "1"},
                "unit_price_override": {"type": "string", "example": "10.00"},
                "unit_cost_override": {"type": "string", "example": "6.00"}
            }
        },
        "dto.BundleResponse": {
            "type": "object",
            "properties": {
                "item": {"type": "object"},
                "definition": {"type": "object"},
                "rollup": {"$ref": "#/definitions/catalog.Rollup"}
            }
        },
        "dto.ConversionResponse": {
            "type": "object",
            "properties": {
                "invoice": {"$ref": "#/definitions/dto.InvoiceResponse"},
                "payment_link_error": {"type": "boolean"}
            }
        },
        "dto.ConvertEstimateRequest": {
            "type": "object",
            "properties": {
                "billing_mode": {"type": "string", "enum": ["FULL", "PERCENTAGE", "MANUAL"], "default": "FULL"},
                "percentage": {"type": "string", "example": "25"},
                "selected_line_item_ids": {"type": "array", "items": {"type": "string", "format": "uuid"}}
            }
        },
        "dto.CreateBundleRequest": {
            "type": "object",
            "required": ["name", "components"],
            "properties": {
                "name": {"type": "string", "maxLength": 200},
                "description": {"type": "string", "maxLength": 2000},
                "unit": {"type": "string", "maxLength": 20},
                "components": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/dto.BundleComponentRequest"}}
            }
        },
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "integer"},
                "details": {"type": "array", "items": {"$ref": "#/definitions/dto.ValidationDetail"}}
            }
        },
        "dto.EstimateResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "estimate_number": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "string"},
                "client_id": {"type": "string", "format": "uuid"},
                "lead_id": {"type": "string", "format": "uuid"},
                "job_id": {"type": "string", "format": "uuid"},
                "job_site_address": {"type": "string"},
                "line_items": {"type": "array", "items": {"$ref": "#/definitions/dto.LineItemResponse"}},
                "subtotal": {"type": "string"},
                "discount": {"type": "string"},
                "tax_rate": {"type": "string"},
                "tax_amount": {"type": "string"},
                "total": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "dto.InvoiceResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "invoice_number": {"type": "string", "example": "INV-000001"},
                "title": {"type": "string"},
                "status": {"type": "string", "enum": ["DRAFT", "PARTIAL", "PAID"]},
                "client_id": {"type": "string", "format": "uuid"},
                "estimate_id": {"type": "string", "format": "uuid"},
                "job_id": {"type": "string", "format": "uuid"},
                "billing_mode": {"type": "string"},
                "progress_percent": {"type": "string"},
                "notes": {"type": "string"},
                "terms": {"type": "string"},
                "line_items": {"type": "array", "items": {"$ref": "#/definitions/dto.LineItemResponse"}},
                "subtotal": {"type": "string"},
                "discount": {"type": "string"},
                "tax_rate": {"type": "string"},
                "tax_amount": {"type": "string"},
                "total": {"type": "string"},
                "paid_amount": {"type": "string"},
                "balance": {"type": "string"},
                "paid_at": {"type": "string", "format": "date-time"},
                "invoice_date": {"type": "string", "format": "date-time"},
                "payment_url": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "dto.LineGroupResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "document_type": {"type": "string"},
                "document_id": {"type": "string", "format": "uuid"},
                "name": {"type": "string"},
                "source_bundle_id": {"type": "string", "format": "uuid"},
                "source_bundle_name": {"type": "string"},
                "sort_order": {"type": "integer"}
            }
        },
        "dto.LineItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "group_id": {"type": "string", "format": "uuid"},
                "source_item_id": {"type": "string", "format": "uuid"},
                "source_bundle_id": {"type": "string", "format": "uuid"},
                "description": {"type": "string"},
                "quantity": {"type": "string"},
                "unit_price": {"type": "string"},
                "unit_cost": {"type": "string"},
                "total": {"type": "string"},
                "sort_order": {"type": "integer"},
                "notes": {"type": "string"},
                "taxable": {"type": "boolean"},
                "tax_rate": {"type": "string"},
                "is_visible_to_client": {"type": "boolean"},
                "show_cost_to_customer": {"type": "boolean"},
                "show_price_to_customer": {"type": "boolean"},
                "show_tax_to_customer": {"type": "boolean"},
                "show_notes_to_customer": {"type": "boolean"}
            }
        },
        "dto.PaymentWebhookResponse": {
            "type": "object",
            "properties": {
                "ok": {"type": "boolean"},
                "ignored": {"type": "boolean"},
                "duplicate": {"type": "boolean"},
                "job_id": {"type": "string", "format": "uuid"}
            }
        },
        "dto.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"}
            }
        },
        "dto.ValidationDetail": {
            "type": "object",
            "properties": {
                "field": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.SystemInfoResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "version": {"type": "string"},
                "go_version": {"type": "string"},
                "uptime": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Field Service Billing API",
	Description:      "Estimates, progress invoices, bundle flattening and payment reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
