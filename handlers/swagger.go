package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the panel API.
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
    <title>slayerbot panel API | Swagger</title>
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
  "info": { "title": "slayerbot-panel", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": {"type":"string"}, "message": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/auth/discord/callback": {
      "post": {
        "summary": "Exchange a Discord authorization code for a panel session token",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["code"],"properties":{"code":{"type":"string"},"redirect_uri":{"type":"string"}}}}}},
        "responses": { "200": { "description": "access_token, token_type, expires_in" }, "400": { "description": "missing code" }, "429": { "description": "rate limited" }, "500": { "description": "authentication failed" } }
      }
    },
    "/api/auth/me": {
      "get": { "summary": "Current user", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "401": { "description": "missing or invalid token" } } }
    },
    "/api/guilds": {
      "get": { "summary": "Guilds of the current user with hasBot and canManage", "security": [{"bearer": []}], "responses": { "200": { "description": "guild list" }, "500": { "description": "Failed to get user guilds" } } }
    },
    "/api/guilds/{guildId}/channels": {
      "get": { "summary": "Text and announcement channels sorted by position", "security": [{"bearer": []}], "responses": { "200": { "description": "channel list" }, "403": { "description": "cannot manage guild" } } }
    },
    "/api/guilds/{guildId}/logs": {
      "get": { "summary": "Log channel routes (created with defaults when absent)", "security": [{"bearer": []}], "responses": { "200": { "description": "log channel document" }, "403": { "description": "cannot manage guild" } } },
      "put": { "summary": "Partially update log channel routes", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","additionalProperties":{"type":"string","nullable":true}}}}}, "responses": { "200": { "description": "updated document" }, "400": { "description": "invalid body" }, "403": { "description": "cannot manage guild" } } }
    },
    "/api/guilds/{guildId}/language": {
      "get": { "summary": "Bot language (created as tr when absent)", "security": [{"bearer": []}], "responses": { "200": { "description": "language document" } } },
      "put": { "summary": "Set bot language", "security": [{"bearer": []}], "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["language"],"properties":{"language":{"type":"string","enum":["tr","en","es","ru","zh","fr","pt","ja","ko","de"]}}}}}}, "responses": { "200": { "description": "updated document" }, "400": { "description": "invalid language" } } }
    },
    "/health": { "get": { "summary": "Liveness", "responses": { "200": { "description": "ok" } } } },
    "/ready": { "get": { "summary": "Readiness of MongoDB and the Discord gateway", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition" } } } }
  }
}`
