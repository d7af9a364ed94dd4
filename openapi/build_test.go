package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMinimal(t *testing.T) {
	doc := Build(map[string]any{})

	assert.Equal(t, "3.1.0", doc["openapi"])
	info := doc["info"].(map[string]any)
	assert.Equal(t, "Extracted API", info["title"])
	assert.Equal(t, "1.0.0", info["version"])

	servers := doc["servers"].([]any)
	require.Len(t, servers, 1)
	assert.Equal(t, "https://api.example.com", servers[0].(map[string]any)["url"])

	ok, errs := CheckShape(doc)
	assert.True(t, ok, "errors: %v", errs)
}

func TestBuildBlankPathDefaultsToRoot(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{
			map[string]any{"method": "GET", "path": "   "},
			map[string]any{"method": "POST"},
		},
	})

	paths := doc["paths"].(map[string]any)
	require.Contains(t, paths, "/")
	item := paths["/"].(map[string]any)
	assert.Contains(t, item, "get")
	assert.Contains(t, item, "post")
	assert.Equal(t, "get_root", item["get"].(map[string]any)["operationId"])
}

func TestBuildOperationID(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{
			map[string]any{"method": "GET", "path": "/v1/users/{id}/orders"},
			map[string]any{"method": "DELETE", "path": "/things", "operation_id": "removeThing"},
		},
	})

	paths := doc["paths"].(map[string]any)
	op := paths["/v1/users/{id}/orders"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, "get_v1_users_id_orders", op["operationId"])

	op = paths["/things"].(map[string]any)["delete"].(map[string]any)
	assert.Equal(t, "removeThing", op["operationId"])
}

func TestBuildDefaultResponses(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{map[string]any{"method": "GET", "path": "/users"}},
	})

	op := doc["paths"].(map[string]any)["/users"].(map[string]any)["get"].(map[string]any)
	responses := op["responses"].(map[string]any)
	require.Len(t, responses, 1)
	require.Contains(t, responses, "200")
	entry := responses["200"].(map[string]any)
	assert.Equal(t, "Successful response", entry["description"])
}

func TestBuildResponsesCarriedThrough(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{map[string]any{
			"method": "GET", "path": "/users",
			"responses": map[string]any{
				"200": map[string]any{
					"description": "ok",
					"headers": map[string]any{
						"X-Rate-Limit": map[string]any{"schema": map[string]any{"type": "integer"}},
					},
					"content": map[string]any{
						"application/json": map[string]any{
							"schema":  map[string]any{"type": "object", "properties": map[string]any{"id": map[string]any{"type": "string"}}},
							"example": map[string]any{"id": "u_1"},
						},
					},
				},
				"404": map[string]any{},
			},
		}},
	})

	op := doc["paths"].(map[string]any)["/users"].(map[string]any)["get"].(map[string]any)
	responses := op["responses"].(map[string]any)
	require.Len(t, responses, 2)
	assert.Equal(t, "Response for status 404", responses["404"].(map[string]any)["description"])

	okResp := responses["200"].(map[string]any)
	headers := okResp["headers"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "integer"}, headers["X-Rate-Limit"].(map[string]any)["schema"])
	content := okResp["content"].(map[string]any)["application/json"].(map[string]any)
	assert.Contains(t, content["schema"].(map[string]any), "properties")
	assert.Equal(t, map[string]any{"id": "u_1"}, content["example"])
}

func TestBuildParameterDefaults(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{map[string]any{
			"method": "GET", "path": "/users",
			"parameters": []any{
				map[string]any{"name": "limit"},
				map[string]any{"name": "id", "in": "path", "required": true, "schema": map[string]any{"type": "integer"}},
			},
		}},
	})

	op := doc["paths"].(map[string]any)["/users"].(map[string]any)["get"].(map[string]any)
	params := op["parameters"].([]any)
	require.Len(t, params, 2)

	limit := params[0].(map[string]any)
	assert.Equal(t, "query", limit["in"])
	assert.Equal(t, false, limit["required"])
	assert.Equal(t, map[string]any{"type": "string"}, limit["schema"])

	id := params[1].(map[string]any)
	assert.Equal(t, "path", id["in"])
	assert.Equal(t, map[string]any{"type": "integer"}, id["schema"])
}

func TestBuildRequestBodyDefaultContentType(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{map[string]any{
			"method": "POST", "path": "/users",
			"request_body": map[string]any{"required": true},
		}},
	})

	op := doc["paths"].(map[string]any)["/users"].(map[string]any)["post"].(map[string]any)
	body := op["requestBody"].(map[string]any)
	content := body["content"].(map[string]any)
	require.Contains(t, content, "application/json")
	assert.Equal(t, map[string]any{"type": "object"}, content["application/json"].(map[string]any)["schema"])
}

func TestBuildComponentsPrecedence(t *testing.T) {
	doc := Build(map[string]any{
		"components": map[string]any{
			"schemas": map[string]any{
				"User": map[string]any{"type": "object", "properties": map[string]any{"id": map[string]any{"type": "string"}}},
			},
			"securitySchemes": map[string]any{
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer"},
			},
		},
		"schemas": map[string]any{
			"User":  map[string]any{"type": "object", "properties": map[string]any{"wrong": map[string]any{"type": "string"}}},
			"Order": map[string]any{"type": "object"},
		},
	})

	components := doc["components"].(map[string]any)
	schemas := components["schemas"].(map[string]any)
	require.Contains(t, schemas, "User")
	require.Contains(t, schemas, "Order")
	user := schemas["User"].(map[string]any)["properties"].(map[string]any)
	assert.Contains(t, user, "id")
	assert.NotContains(t, user, "wrong")
	assert.Contains(t, components["securitySchemes"], "bearerAuth")
}

func TestBuildTagsSortedDeduplicated(t *testing.T) {
	doc := Build(map[string]any{
		"endpoints": []any{
			map[string]any{"method": "GET", "path": "/users", "tags": []any{"users", "admin"}},
			map[string]any{"method": "POST", "path": "/users", "tags": []any{"users"}},
		},
	})

	tags := doc["tags"].([]any)
	require.Len(t, tags, 2)
	assert.Equal(t, "admin", tags[0].(map[string]any)["name"])
	assert.Equal(t, "users", tags[1].(map[string]any)["name"])
}

func TestBuildSerializable(t *testing.T) {
	doc := Build(map[string]any{
		"api_info":  map[string]any{"name": "Sample", "base_url": "https://api.sample.dev"},
		"endpoints": []any{map[string]any{"method": "GET", "path": "/ping"}},
	})

	jsonOut, err := ToJSON(doc)
	require.NoError(t, err)
	assert.Contains(t, string(jsonOut), `"openapi": "3.1.0"`)

	yamlOut, err := ToYAML(doc)
	require.NoError(t, err)
	assert.Contains(t, string(yamlOut), "openapi: 3.1.0")
}
