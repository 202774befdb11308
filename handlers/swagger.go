package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the trust API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>trustfund - Swagger</title>
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
  "info": { "title": "trustfund", "version": "v0.1.0" },
  "components": {
    "schemas": {
      "User": { "type": "object", "properties": { "id": {"type":"string"}, "email": {"type":"string"} } },
      "TrustGoal": { "type": "object", "properties": { "id": {"type":"string"}, "user_id": {"type":"string"}, "name": {"type":"string"}, "description": {"type":"string"}, "target_amount": {"type":"number"}, "current_balance": {"type":"number"}, "created_at": {"type":"string","format":"date-time"}, "is_real": {"type":"boolean"} } },
      "CreateTrustGoal": { "type": "object", "required": ["name","target_amount"], "properties": { "name": {"type":"string"}, "description": {"type":"string"}, "target_amount": {"type":"number"} } },
      "Deposit": { "type": "object", "properties": { "id": {"type":"string"}, "trust_id": {"type":"string"}, "amount": {"type":"number"}, "timestamp": {"type":"string","format":"date-time"} } },
      "Note": { "type": "object", "properties": { "id": {"type":"string"}, "trust_id": {"type":"string"}, "content": {"type":"string"}, "created_at": {"type":"string","format":"date-time"} } },
      "Error": { "type": "object", "properties": { "detail": {"type":"string"} } }
    }
  },
  "paths": {
    "/register": {
      "post": { "summary": "Register a user", "parameters": [{"name":"email","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "User" }, "422": { "description": "validation error" } } }
    },
    "/trusts": {
      "post": { "summary": "Create a trust goal", "parameters": [{"name":"user_id","in":"query","required":true,"schema":{"type":"string"}}], "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/CreateTrustGoal"} } } }, "responses": { "200": { "description": "TrustGoal" }, "422": { "description": "validation error" } } },
      "get": { "summary": "List a user's trust goals", "parameters": [{"name":"user_id","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "list of TrustGoal" } } }
    },
    "/trusts/{trust_id}": {
      "get": { "summary": "Get a trust goal", "responses": { "200": { "description": "TrustGoal" }, "404": { "description": "Trust not found" } } }
    },
    "/trusts/{trust_id}/deposit": {
      "post": { "summary": "Record a deposit", "parameters": [{"name":"amount","in":"query","required":true,"schema":{"type":"number"}}], "responses": { "200": { "description": "Deposit" }, "404": { "description": "Trust not found" } } }
    },
    "/trusts/{trust_id}/note": {
      "post": { "summary": "Attach a note", "parameters": [{"name":"content","in":"query","required":true,"schema":{"type":"string"}}], "responses": { "200": { "description": "Note" }, "404": { "description": "Trust not found" } } }
    },
    "/trusts/{trust_id}/make_real": {
      "patch": { "summary": "Mark a trust goal as real", "responses": { "200": { "description": "confirmation message" }, "404": { "description": "Trust not found" } } }
    },
    "/trusts/{trust_id}/statement": {
      "get": { "summary": "Goal with its deposits and notes", "responses": { "200": { "description": "Statement" }, "404": { "description": "Trust not found" } } }
    },
    "/trusts/{trust_id}/statement/archive": {
      "post": { "summary": "Upload the statement to object storage", "responses": { "200": { "description": "key and presigned url" }, "404": { "description": "Trust not found" }, "503": { "description": "object storage not configured" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
