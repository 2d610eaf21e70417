// Package docs - OpenAPI описание Route Planner API.
// Файл перегенерируется командой `swag init -g cmd/api/main.go`; здесь зарегистрирована базовая схема.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
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
        "/api/v1/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Состояние сервиса",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/routes": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Routes"],
                "summary": "Список маршрутов",
                "parameters": [
                    {"type": "integer", "default": 20, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Routes"],
                "summary": "Создание маршрута",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/routes/{id}": {
            "get": {"tags": ["Routes"], "summary": "Получение маршрута", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["Routes"], "summary": "Изменение маршрута", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["Routes"], "summary": "Удаление маршрута", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/routes/{id}/paths": {
            "get": {"tags": ["Routes"], "summary": "Подготовленная геометрия маршрута", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/routes/{id}/scene": {
            "get": {"tags": ["Routes"], "summary": "Статическая сцена маршрута", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "style", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/places/search": {
            "get": {"tags": ["Places"], "summary": "Поиск мест", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}, {"type": "integer", "default": 5, "name": "limit", "in": "query"}], "responses": {"200": {"description": "OK"}, "502": {"description": "Bad Gateway"}}}
        },
        "/api/v1/paths": {
            "post": {"tags": ["Paths"], "summary": "Предпросмотр пути сегмента", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/animations": {
            "get": {"tags": ["Animations"], "summary": "Активные сессии", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Animations"], "summary": "Запуск пролёта", "responses": {"201": {"description": "Created"}, "429": {"description": "Too Many Requests"}}}
        },
        "/api/v1/animations/{id}": {
            "get": {"tags": ["Animations"], "summary": "Состояние сессии", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Animations"], "summary": "Остановка и удаление сессии", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/api/v1/animations/{id}/scene": {
            "get": {"tags": ["Animations"], "summary": "Текущая сцена сессии", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/animations/{id}/pause": {
            "post": {"tags": ["Animations"], "summary": "Пауза", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/animations/{id}/resume": {
            "post": {"tags": ["Animations"], "summary": "Продолжение после паузы", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Route Planner API",
	Description:      "Сервис маршрутов путешествий и анимации пролёта камеры по ним.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
