package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
)

// ParseJSONResponse extracts a JSON object from model output, tolerating
// markdown code fences and surrounding prose. It tries, in order: the whole
// text, a ```json fence, a bare ``` fence, and finally the outermost
// brace-delimited region. Returns nil when no candidate parses.
func ParseJSONResponse(text string) map[string]any {
	if obj := tryParseObject(text); obj != nil {
		return obj
	}

	if match := fencedJSONRe.FindStringSubmatch(text); match != nil {
		if obj := tryParseObject(match[1]); obj != nil {
			return obj
		}
	}

	if match := fencedAnyRe.FindStringSubmatch(text); match != nil {
		if obj := tryParseObject(match[1]); obj != nil {
			return obj
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if obj := tryParseObject(text[start : end+1]); obj != nil {
			return obj
		}
	}

	return nil
}

func tryParseObject(candidate string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &obj); err != nil {
		return nil
	}
	return obj
}
