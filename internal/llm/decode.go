package llm

import (
	"encoding/json"
	"strings"
)

// decodeModelJSON parses model output that should be bare JSON but may be
// wrapped in Markdown fences or surrounded by stray prose.
func decodeModelJSON(raw string, v interface{}) error {
	return json.Unmarshal([]byte(cleanModelJSON(raw)), v)
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If junk surrounds the JSON value, keep the outermost object or array,
	// whichever opens first.
	open, closing := "{", "}"
	if a := strings.Index(s, "["); a != -1 {
		if b := strings.Index(s, "{"); b == -1 || a < b {
			open, closing = "[", "]"
		}
	}
	start := strings.Index(s, open)
	end := strings.LastIndex(s, closing)
	if start != -1 && end > start {
		return strings.TrimSpace(s[start : end+1])
	}
	return s
}
