package openapi

import (
	"fmt"
	"strings"
)

// CheckShape verifies the basic OpenAPI shape of a document: version field
// present and 3.x, info.title/info.version present, paths present, and every
// HTTP-method operation carrying a non-empty responses map. All violations
// are collected; the check annotates a document, it never blocks one.
func CheckShape(doc map[string]any) (bool, []string) {
	var errs []string

	version, present := doc["openapi"]
	if !present {
		errs = append(errs, "missing 'openapi' field")
	} else if v, ok := version.(string); !ok || !strings.HasPrefix(v, "3.") {
		errs = append(errs, fmt.Sprintf("invalid OpenAPI version: %v", version))
	}

	info, ok := doc["info"].(map[string]any)
	if !ok {
		errs = append(errs, "missing 'info' field")
	} else {
		if _, ok := info["title"]; !ok {
			errs = append(errs, "missing 'info.title'")
		}
		if _, ok := info["version"]; !ok {
			errs = append(errs, "missing 'info.version'")
		}
	}

	if _, present := doc["paths"]; !present {
		errs = append(errs, "missing 'paths' field")
	}

	paths, _ := doc["paths"].(map[string]any)
	for path, rawItem := range paths {
		item, ok := rawItem.(map[string]any)
		if !ok {
			errs = append(errs, fmt.Sprintf("invalid path item for %s", path))
			continue
		}
		for method, rawOperation := range item {
			if !httpMethods[method] {
				continue
			}
			operation, ok := rawOperation.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("invalid operation for %s %s", strings.ToUpper(method), path))
				continue
			}
			responses, ok := operation["responses"].(map[string]any)
			if !ok || len(responses) == 0 {
				errs = append(errs, fmt.Sprintf("missing responses for %s %s", strings.ToUpper(method), path))
			}
		}
	}

	return len(errs) == 0, errs
}
