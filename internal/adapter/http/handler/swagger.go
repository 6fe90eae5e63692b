package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"arc-exchange/pkg/apperror"
	"arc-exchange/pkg/response"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// APIDocs serves the OpenAPI document as YAML and JSON plus a Swagger UI
// page pointing at it.
type APIDocs struct {
	yamlDoc []byte
	jsonDoc []byte
}

// NewAPIDocs parses spec once so a malformed document fails at startup.
// A nil spec yields docs that answer 404.
func NewAPIDocs(spec []byte) (*APIDocs, error) {
	if len(spec) == 0 {
		return &APIDocs{}, nil
	}

	var doc any
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	root, ok := stringKeys(doc).(map[string]any)
	if !ok || root["openapi"] == nil {
		return nil, fmt.Errorf("openapi document has no openapi version field")
	}
	jsonDoc, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return &APIDocs{yamlDoc: spec, jsonDoc: jsonDoc}, nil
}

// stringKeys rewrites YAML maps with non-string keys, such as unquoted
// status codes, into JSON-encodable maps.
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = stringKeys(t[i])
		}
		return t
	default:
		return v
	}
}

func (d *APIDocs) YAML(c *gin.Context) {
	if d.yamlDoc == nil {
		response.Error(c, apperror.ErrNotFound("API document"))
		return
	}
	c.Data(http.StatusOK, "application/yaml", d.yamlDoc)
}

func (d *APIDocs) JSON(c *gin.Context) {
	if d.jsonDoc == nil {
		response.Error(c, apperror.ErrNotFound("API document"))
		return
	}
	c.Data(http.StatusOK, "application/json", d.jsonDoc)
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Arc Exchange API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({url: '/swagger/spec.json', dom_id: '#swagger-ui', deepLinking: true});
  </script>
</body>
</html>`

func (d *APIDocs) UI(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerPage))
}
