package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the records service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>promptkeeper - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "promptkeeper", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "Prompt": {"type":"object","properties":{"id":{"type":"string"},"tags":{"type":"array","items":{"type":"string"}},"heading":{"type":"string"},"bodyText":{"type":"string"},"industry":{"type":"string"}}},
      "Record": {"type":"object","properties":{"id":{"type":"string"},"key":{"type":"string"},"remaining":{"type":"integer"},"prompts":{"type":"array","items":{"$ref":"#/components/schemas/Prompt"}}}},
      "AdminConfig": {"type":"object","properties":{"email_id":{"type":"array","items":{"type":"string"}},"industries":{"type":"array","items":{"type":"string"}},"type_of_post":{"type":"array","items":{"type":"string"}},"target_audience":{"type":"array","items":{"type":"string"}},"number_of_free_prompts":{"type":"integer"}}},
      "Error": {"type":"object","properties":{"error":{"type":"string"}}}
    }
  },
  "paths": {
    "/records": {
      "post": {
        "summary": "Create a record",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["key"],"properties":{"key":{"type":"string"},"remaining":{"type":"integer","default":100}}}}}},
        "responses": { "201": { "description": "created record" }, "400": { "description": "invalid body" }, "500": { "description": "store error or duplicate key" } }
      },
      "get": { "summary": "List records", "responses": { "200": { "description": "all records" } } }
    },
    "/records/{key}": {
      "get": { "summary": "Get a record", "responses": { "200": { "description": "record" }, "404": { "description": "not found" } } },
      "patch": { "summary": "Update remaining and/or prompts", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"remaining":{"type":"integer"},"prompts":{"type":"array","items":{"$ref":"#/components/schemas/Prompt"}}}}}}}, "responses": { "200": { "description": "updated record" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a record", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/records/export": {
      "post": { "summary": "Export a JSON snapshot to object storage", "responses": { "201": { "description": "snapshot key and presigned URL" }, "503": { "description": "object storage not configured" } } }
    },
    "/prompts": {
      "post": { "summary": "Append a prompt (key in body, no industry)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["key"],"properties":{"key":{"type":"string"},"tags":{"type":"array","items":{"type":"string"}},"heading":{"type":"string"},"bodyText":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated record" }, "404": { "description": "not found" } } }
    },
    "/prompts/{key}": {
      "put": { "summary": "Append a prompt with industry", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"tags":{"type":"array","items":{"type":"string"}},"heading":{"type":"string"},"bodyText":{"type":"string"},"industry":{"type":"string"}}}}}}, "responses": { "200": { "description": "updated record" }, "404": { "description": "not found" } } },
      "get": { "summary": "List a record's prompts", "responses": { "200": { "description": "{prompts: [...]}" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Remove a prompt by id", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"promptId":{"type":"string"}}}}}}, "responses": { "200": { "description": "record; X-Prompt-Removed tells whether a prompt matched" }, "404": { "description": "not found" } } }
    },
    "/prompts/industry": {
      "get": { "summary": "Most frequent industry across all prompts", "description": "Prompts without an industry (those appended through POST /prompts) are not counted and never appear as a null group. Ties go to the alphabetically first industry.", "responses": { "200": { "description": "[] or [{_id, count}]" } } }
    },
    "/admin/config": {
      "get": { "summary": "Get admin configuration", "responses": { "200": { "description": "config" } } },
      "put": { "summary": "Replace admin configuration; lists are de-duplicated", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/AdminConfig"}}}}, "responses": { "200": { "description": "config" }, "400": { "description": "invalid body" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
