package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// decodeJSONObject unmarshals the first JSON object found in a model reply.
// Models wrap answers in code fences or prose often enough that strict
// unmarshaling of the whole string is too brittle.
func decodeJSONObject(s string, v interface{}) error {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object in %q", s)
	}

	return json.Unmarshal([]byte(s[start:end+1]), v)
}
