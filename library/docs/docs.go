// Package docs registers the OpenAPI description served under /swagger/*.
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
    "securityDefinitions": {
        "UserID": {"type": "apiKey", "name": "X-User-Id", "in": "header"},
        "UserRole": {"type": "apiKey", "name": "X-User-Role", "in": "header"}
    },
    "security": [{"UserID": [], "UserRole": []}],
    "paths": {
        "/categories": {
            "get": {"tags": ["catalog"], "summary": "List categories", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["catalog"], "summary": "Create category (admin)", "parameters": [{"in": "body", "name": "category", "required": true, "schema": {"$ref": "#/definitions/categoryRequest"}}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/categories/{id}": {
            "get": {"tags": ["catalog"], "summary": "Get category", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["catalog"], "summary": "Rename or move category (admin)", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "category", "required": true, "schema": {"$ref": "#/definitions/categoryRequest"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}},
            "delete": {"tags": ["catalog"], "summary": "Delete unused category (admin)", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/categories/{id}/subcategories": {
            "get": {"tags": ["catalog"], "summary": "List direct children", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}
        },
        "/books": {
            "get": {"tags": ["catalog"], "summary": "List copies in circulation (admin)", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["catalog"], "summary": "Add title with its first copy (admin)", "parameters": [{"in": "body", "name": "book", "required": true, "schema": {"$ref": "#/definitions/addBookRequest"}}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/books/{id}": {
            "get": {"tags": ["catalog"], "summary": "Get copy", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["catalog"], "summary": "Edit the title behind a copy (admin)", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "book", "required": true, "schema": {"$ref": "#/definitions/updateBookInfoRequest"}}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["catalog"], "summary": "Soft delete copy (admin)", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/rentals": {"get": {"tags": ["rentals"], "summary": "All rentals (admin)", "responses": {"200": {"description": "OK"}}}},
        "/rentals/overdue": {"get": {"tags": ["rentals"], "summary": "Overdue rentals (admin)", "parameters": [{"in": "query", "name": "userId", "type": "integer"}], "responses": {"200": {"description": "OK"}}}},
        "/rentals/rent/{copyId}": {"post": {"tags": ["rentals"], "summary": "Rent a copy", "parameters": [{"$ref": "#/parameters/copyId"}], "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}},
        "/rentals/return/{copyId}": {"post": {"tags": ["rentals"], "summary": "Return a copy", "parameters": [{"$ref": "#/parameters/copyId"}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}},
        "/rentals/user/{userId}": {"get": {"tags": ["rentals"], "summary": "Rentals of a user (admin)", "parameters": [{"$ref": "#/parameters/userId"}], "responses": {"200": {"description": "OK"}}}},
        "/rentals/book/{copyId}": {"get": {"tags": ["rentals"], "summary": "Rentals of a copy (admin)", "parameters": [{"$ref": "#/parameters/copyId"}], "responses": {"200": {"description": "OK"}}}},
        "/audit": {"get": {"tags": ["audit"], "summary": "Audit trail (admin)", "responses": {"200": {"description": "OK"}}}},
        "/audit/user/{userId}": {"get": {"tags": ["audit"], "summary": "Audit trail of a user (admin)", "parameters": [{"$ref": "#/parameters/userId"}], "responses": {"200": {"description": "OK"}}}},
        "/audit/book/{copyId}": {"get": {"tags": ["audit"], "summary": "Audit trail of a copy (admin)", "parameters": [{"$ref": "#/parameters/copyId"}], "responses": {"200": {"description": "OK"}}}},
        "/users": {"get": {"tags": ["users"], "summary": "Find user by username (admin)", "parameters": [{"in": "query", "name": "username", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/register": {"post": {"tags": ["users"], "summary": "Register a user", "security": [], "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/registerRequest"}}], "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}},
        "/users/{id}": {
            "get": {"tags": ["users"], "summary": "Get user (admin)", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["users"], "summary": "Update user fields (admin)", "parameters": [{"$ref": "#/parameters/id"}, {"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/updateUserRequest"}}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["users"], "summary": "Delete user without open rentals (admin)", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        }
    },
    "parameters": {
        "id": {"in": "path", "name": "id", "type": "integer", "required": true},
        "copyId": {"in": "path", "name": "copyId", "type": "integer", "required": true},
        "userId": {"in": "path", "name": "userId", "type": "integer", "required": true}
    },
    "definitions": {
        "categoryRequest": {"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}, "parentId": {"type": "integer"}}},
        "addBookRequest": {"type": "object", "required": ["title", "author", "categoryId", "serialNumber"], "properties": {"title": {"type": "string"}, "author": {"type": "string"}, "categoryId": {"type": "integer"}, "serialNumber": {"type": "integer", "minimum": 100000}}},
        "updateBookInfoRequest": {"type": "object", "required": ["bookInfoId", "title", "author", "categoryId"], "properties": {"bookInfoId": {"type": "integer"}, "title": {"type": "string"}, "author": {"type": "string"}, "categoryId": {"type": "integer"}}},
        "registerRequest": {"type": "object", "required": ["username", "password", "role"], "properties": {"username": {"type": "string", "minLength": 6}, "password": {"type": "string", "minLength": 6}, "role": {"type": "string", "enum": ["USER", "ADMIN"]}}},
        "updateUserRequest": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Library API",
	Description:      "Catalog, rentals and audit trail of a library.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
