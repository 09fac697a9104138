package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterOpenAPI registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterOpenAPI(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(openAPIJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>tasklight API</title>
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

const openAPIJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "tasklight", "version": "v0.1.0" },
  "paths": {
    "/auth/register": {
      "post": { "summary": "Create an account", "responses": { "201": { "description": "user and token pair" }, "409": { "description": "email already registered" } } }
    },
    "/auth/login": {
      "post": { "summary": "Login with email and password", "responses": { "200": { "description": "user and token pair" }, "401": { "description": "invalid credentials" }, "429": { "description": "rate limited" } } }
    },
    "/auth/refresh": {
      "post": { "summary": "Rotate a refresh token", "responses": { "200": { "description": "new token pair" }, "401": { "description": "invalid refresh token" }, "429": { "description": "rate limited" } } }
    },
    "/auth/logout": {
      "post": { "summary": "Revoke the session family", "responses": { "204": { "description": "logged out" }, "401": { "description": "invalid refresh token" } } }
    },
    "/auth/me": {
      "get": { "summary": "Get the authenticated user", "responses": { "200": { "description": "user" }, "401": { "description": "authentication required" } } }
    },
    "/api/todos": {
      "get": { "summary": "List the user's todos", "responses": { "200": { "description": "todos" } } },
      "post": { "summary": "Create a todo", "responses": { "201": { "description": "todo" } } }
    },
    "/api/todos/{id}": {
      "get": { "summary": "Get one todo", "responses": { "200": { "description": "todo" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace title and completed", "responses": { "200": { "description": "todo" } } },
      "patch": { "summary": "Update provided fields", "responses": { "200": { "description": "todo" } } },
      "delete": { "summary": "Delete a todo", "responses": { "204": { "description": "deleted" } } }
    },
    "/api/admin/todos": {
      "get": { "summary": "List all users' todos (admin)", "responses": { "200": { "description": "todos" }, "403": { "description": "admin access required" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
