// Package docs содержит swagger-спецификацию API сетки.
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Проверка живости",
                "responses": {
                    "200": {"description": "OK"},
                    "503": {"description": "База данных недоступна"}
                }
            }
        },
        "/matches": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Создать матч сетки",
                "parameters": [
                    {"description": "Команды, чемпионат, вид спорта, пол и стадия", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateMatchInput"}}
                ],
                "responses": {
                    "201": {"description": "Матч создан", "schema": {"type": "object", "properties": {"match": {"$ref": "#/definitions/models.Match"}}}},
                    "400": {"description": "Ошибка валидации"},
                    "404": {"description": "Команда или чемпионат не найдены"},
                    "409": {"description": "Сетка заполнена"},
                    "422": {"description": "Стадия не подходит для пола"}
                }
            }
        },
        "/matches/{matchID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Получить матч",
                "parameters": [
                    {"type": "integer", "description": "Match ID", "name": "matchID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"match": {"$ref": "#/definitions/models.Match"}}}},
                    "404": {"description": "Матч не найден"}
                }
            }
        },
        "/matches/{matchID}/result": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["matches"],
                "summary": "Записать результат матча",
                "parameters": [
                    {"type": "integer", "description": "Match ID", "name": "matchID", "in": "path", "required": true},
                    {"description": "Победитель и счет", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.RecordResultInput"}}
                ],
                "responses": {
                    "200": {"description": "result: match, next_match, slot, warning"},
                    "404": {"description": "Матч не найден"},
                    "409": {"description": "Записан другой победитель"},
                    "422": {"description": "Победитель не играет в матче"}
                }
            }
        },
        "/championships/{championshipID}/brackets/{sport}/{gender}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Получить сетку",
                "parameters": [
                    {"type": "integer", "name": "championshipID", "in": "path", "required": true},
                    {"type": "string", "name": "sport", "in": "path", "required": true},
                    {"type": "string", "enum": ["male", "female"], "name": "gender", "in": "path", "required": true},
                    {"type": "string", "enum": ["not_yet_scheduled", "scheduled", "live", "played"], "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Неверные параметры"},
                    "404": {"description": "Чемпионат не найден"}
                }
            }
        },
        "/championships/{championshipID}/brackets/{sport}/{gender}/seed": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Посеять первую стадию",
                "parameters": [
                    {"type": "integer", "name": "championshipID", "in": "path", "required": true},
                    {"type": "string", "name": "sport", "in": "path", "required": true},
                    {"type": "string", "enum": ["male", "female"], "name": "gender", "in": "path", "required": true},
                    {"name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.SeedBracketInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Неверный список команд"},
                    "409": {"description": "Сетка заполнена"}
                }
            }
        },
        "/championships/{championshipID}/brackets/{sport}/{gender}/integrity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Проверить целостность сетки",
                "parameters": [
                    {"type": "integer", "name": "championshipID", "in": "path", "required": true},
                    {"type": "string", "name": "sport", "in": "path", "required": true},
                    {"type": "string", "enum": ["male", "female"], "name": "gender", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "issues"}
                }
            }
        },
        "/championships/{championshipID}/brackets/{sport}/{gender}/snapshot": {
            "post": {
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Выгрузить снимок сетки в R2",
                "parameters": [
                    {"type": "integer", "name": "championshipID", "in": "path", "required": true},
                    {"type": "string", "name": "sport", "in": "path", "required": true},
                    {"type": "string", "enum": ["male", "female"], "name": "gender", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "503": {"description": "Хранилище не настроено"}
                }
            }
        }
    },
    "definitions": {
        "models.Match": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "championship_id": {"type": "integer"},
                "sport_type": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female"]},
                "stage": {"type": "string", "enum": ["preliminary", "quarter-finals", "semi-finals", "finals"]},
                "team_a_id": {"type": "integer"},
                "team_b_id": {"type": "integer"},
                "status": {"type": "string", "enum": ["not_yet_scheduled", "scheduled", "live", "played"]},
                "winner_id": {"type": "integer"},
                "next_match_id": {"type": "integer"},
                "feeder_count": {"type": "integer"},
                "score_a": {"type": "integer"},
                "score_b": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "services.CreateMatchInput": {
            "type": "object",
            "properties": {
                "team_a_id": {"type": "integer"},
                "team_b_id": {"type": "integer"},
                "championship_id": {"type": "integer"},
                "sport_type": {"type": "string"},
                "gender": {"type": "string", "enum": ["male", "female"]},
                "stage": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "services.RecordResultInput": {
            "type": "object",
            "properties": {
                "winner_id": {"type": "integer"},
                "score_a": {"type": "integer"},
                "score_b": {"type": "integer"}
            }
        },
        "services.SeedBracketInput": {
            "type": "object",
            "properties": {
                "team_ids": {"type": "array", "items": {"type": "integer"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "School League Bracket API",
	Description:      "Single-elimination brackets for school championships.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
