package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a small Swagger UI page and the OpenAPI document.
// - GET /swagger/index.html
// - GET /swagger/doc.json
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
    <title>A2 Developers API - Swagger</title>
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
  "info": { "title": "A2 Developers API", "version": "1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } },
      "DemoSummary": {
        "type": "object",
        "properties": {
          "id": { "type": "string" },
          "name": { "type": "string" },
          "email": { "type": "string" },
          "company": { "type": "string" },
          "createdAt": { "type": "string", "format": "date-time" }
        }
      }
    }
  },
  "paths": {
    "/": { "get": { "summary": "API metadata", "responses": { "200": { "description": "name, version and endpoint map" } } } },
    "/api/health": { "get": { "summary": "Liveness and database state", "responses": { "200": { "description": "status, timestamp, mongodb, environment" } } } },
    "/api/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "database connected" }, "503": { "description": "database not connected" } } } },
    "/api/book-demo": {
      "post": {
        "summary": "Book a demo",
        "requestBody": { "required": true, "content": { "application/json": { "schema": { "type": "object", "required": ["name", "email"], "properties": { "name": { "type": "string", "maxLength": 200 }, "email": { "type": "string", "maxLength": 254 }, "company": { "type": "string", "maxLength": 200 }, "message": { "type": "string", "maxLength": 5000 } } } } } },
        "responses": {
          "201": { "description": "booked", "content": { "application/json": { "schema": { "type": "object", "properties": { "message": { "type": "string" }, "demo": { "$ref": "#/components/schemas/DemoSummary" } } } } } },
          "400": { "description": "invalid body or fields", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Error" } } } },
          "413": { "description": "body too large" },
          "415": { "description": "content type is not JSON" },
          "429": { "description": "rate limit exceeded" },
          "500": { "description": "failed to book demo" },
          "503": { "description": "database not connected" }
        }
      }
    },
    "/api/demos": {
      "get": {
        "summary": "List demo requests, newest first",
        "security": [ { "bearer": [] } ],
        "responses": {
          "200": { "description": "count and demos", "content": { "application/json": { "schema": { "type": "object", "properties": { "count": { "type": "integer" }, "demos": { "type": "array", "items": { "$ref": "#/components/schemas/DemoSummary" } } } } } } },
          "401": { "description": "missing or invalid admin token" },
          "500": { "description": "failed to fetch demos" },
          "503": { "description": "database not connected" }
        }
      }
    },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "text exposition format" } } } }
  }
}`
