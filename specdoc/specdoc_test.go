package specdoc

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apibridge/apibridge/internal/httpclient"
)

const petstoreJSON = `{
  "openapi": "3.1.0",
  "info": {"title": "Petstore", "version": "2.3.0", "description": "pets"},
  "servers": [{"url": "https://api.petstore.test/v2"}],
  "paths": {
    "/pets": {
      "parameters": [],
      "get": {"summary": "List pets", "operationId": "listPets", "tags": ["pets"]},
      "post": {"summary": "Create a pet"}
    }
  },
  "components": {
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "integer", "format": "int64"},
          "name": {"type": "string", "description": "display name"}
        }
      }
    },
    "securitySchemes": {
      "apiKey": {"type": "apiKey", "in": "header", "name": "X-Key"}
    }
  }
}`

const swaggerYAML = `
swagger: "2.0"
info:
  title: Legacy API
  version: "1.0"
host: legacy.example.com
basePath: /api
schemes:
  - http
paths:
  /things:
    get:
      summary: List things
definitions:
  Thing:
    properties:
      id:
        type: string
securityDefinitions:
  basic:
    type: basic
`

func TestParseTextJSONAndYAML(t *testing.T) {
	doc, err := ParseText(petstoreJSON)
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", doc["openapi"])

	doc, err = ParseText(swaggerYAML)
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc["swagger"])

	_, err = ParseText("{not valid: [json or yaml")
	assert.Error(t, err)
}

func TestDetectVersion(t *testing.T) {
	cases := []struct {
		doc     map[string]any
		version string
		wantErr bool
	}{
		{map[string]any{"swagger": "2.0"}, "2.0", false},
		{map[string]any{"swagger": "1.2"}, "1.2", true},
		{map[string]any{"openapi": "3.0.3"}, "3.0", false},
		{map[string]any{"openapi": "3.1.0"}, "3.1", false},
		{map[string]any{"openapi": "4.0.0"}, "4.0.0", true},
		{map[string]any{}, "unknown", true},
	}
	for _, tc := range cases {
		version, err := DetectVersion(tc.doc)
		assert.Equal(t, tc.version, version)
		if tc.wantErr {
			assert.Error(t, err)
		} else {
			assert.NoError(t, err)
		}
	}
}

func TestParseOpenAPI31(t *testing.T) {
	doc, err := ParseText(petstoreJSON)
	require.NoError(t, err)

	parsed, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "3.1", parsed["version"])
	info := parsed["info"].(map[string]any)
	assert.Equal(t, "Petstore", info["title"])
	assert.Equal(t, "https://api.petstore.test/v2", parsed["base_url"])

	endpoints := parsed["endpoints"].([]any)
	require.Len(t, endpoints, 2)
	methods := map[string]bool{}
	for _, raw := range endpoints {
		ep := raw.(map[string]any)
		methods[ep["method"].(string)] = true
		assert.Equal(t, "/pets", ep["path"])
	}
	assert.True(t, methods["GET"] && methods["POST"])

	schemas := parsed["schemas"].(map[string]any)
	pet := schemas["Pet"].(map[string]any)
	id := pet["id"].(map[string]any)
	assert.Equal(t, "integer", id["type"])
	assert.Equal(t, true, id["required"])
	name := pet["name"].(map[string]any)
	assert.Equal(t, false, name["required"])

	auth := parsed["auth"].(map[string]any)
	assert.Equal(t, []any{"apiKey"}, auth["schemes"])
}

func TestParseSwagger2(t *testing.T) {
	doc, err := ParseText(swaggerYAML)
	require.NoError(t, err)

	parsed, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "2.0", parsed["version"])
	assert.Equal(t, "http://legacy.example.com/api", parsed["base_url"])

	schemas := parsed["schemas"].(map[string]any)
	require.Contains(t, schemas, "Thing")

	auth := parsed["auth"].(map[string]any)
	assert.Equal(t, []any{"basic"}, auth["schemes"])
}

func TestParseMissingSections(t *testing.T) {
	_, err := Parse(map[string]any{"openapi": "3.1.0", "paths": map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "info")

	_, err = Parse(map[string]any{"openapi": "3.1.0", "info": map[string]any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paths")
}

func TestFetcherFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		w.Write([]byte(petstoreJSON))
	}))
	defer server.Close()

	fetcher := NewFetcherWithClient(httpclient.WrapClient(server.Client()))
	doc, err := fetcher.Fetch(server.URL)
	require.NoError(t, err)
	assert.Equal(t, "3.1.0", doc["openapi"])
}

func TestFetcherErrorStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/secret":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	fetcher := NewFetcherWithClient(httpclient.WrapClient(server.Client()))

	_, err := fetcher.Fetch(server.URL + "/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = fetcher.Fetch(server.URL + "/secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = fetcher.Fetch(server.URL + "/boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestLoadDispatchesRawText(t *testing.T) {
	fetcher := NewFetcher()
	doc, err := fetcher.Load(swaggerYAML)
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc["swagger"])
}
