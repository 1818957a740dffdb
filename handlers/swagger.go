package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>echo-backend — Swagger</title>
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

// Minimal OpenAPI document describing the auth and sync endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "echo-backend", "version": "v0.1.0" },
  "paths": {
    "/login": {
      "get": { "summary": "Redirect to the hosted sign-in page", "responses": { "302": { "description": "Redirect" } } }
    },
    "/signup": {
      "get": { "summary": "Redirect to the hosted sign-up page", "responses": { "302": { "description": "Redirect" } } }
    },
    "/workos/callback": {
      "get": {
        "summary": "OAuth callback; exchanges the code and redirects with a session token",
        "parameters": [ { "name": "code", "in": "query", "required": true, "schema": { "type": "string" } } ],
        "responses": { "302": { "description": "Redirect with token" }, "502": { "description": "Provider failure" } }
      }
    },
    "/token/refresh": {
      "get": {
        "summary": "Re-issue a fresh session token for the authenticated user",
        "security": [ { "bearerAuth": [] } ],
        "responses": { "200": { "description": "New token" }, "401": { "description": "Unauthorized" } }
      }
    },
    "/user": {
      "get": {
        "summary": "Profile of the authenticated user",
        "security": [ { "bearerAuth": [] } ],
        "responses": { "200": { "description": "User profile" }, "401": { "description": "Unauthorized" } }
      }
    },
    "/users": {
      "get": {
        "summary": "Full provider directory (admin)",
        "security": [ { "bearerAuth": [] } ],
        "responses": { "200": { "description": "Users" }, "403": { "description": "Not an admin" } }
      }
    },
    "/users/sync/workos": {
      "get": {
        "summary": "Upsert the provider directory into the local store (admin)",
        "security": [ { "bearerAuth": [] } ],
        "responses": { "200": { "description": "Synced records" }, "403": { "description": "Not an admin" } }
      }
    },
    "/users/sync/keywords": {
      "get": {
        "summary": "Propagate unlinked users to KeywordsAI (admin)",
        "security": [ { "bearerAuth": [] } ],
        "responses": { "200": { "description": "Records after propagation" }, "403": { "description": "Not an admin" } }
      }
    }
  },
  "components": {
    "securitySchemes": { "bearerAuth": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  }
}`
