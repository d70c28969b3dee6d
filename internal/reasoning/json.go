package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a completion contains no JSON object.
var ErrNoJSON = errors.New("no JSON object in response")

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ExtractJSON decodes the outermost JSON object in text into v. Markdown code
// fences and surrounding prose are ignored. A second attempt drops trailing
// commas, which models emit often enough to matter.
func ExtractJSON(text string, v any) error {
	raw := stripFences(text)

	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return ErrNoJSON
	}
	obj := raw[start : end+1]

	err := json.Unmarshal([]byte(obj), v)
	if err == nil {
		return nil
	}
	if retryErr := json.Unmarshal([]byte(trailingComma.ReplaceAllString(obj, "$1")), v); retryErr == nil {
		return nil
	}
	return fmt.Errorf("parsing JSON response: %w", err)
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.Contains(s, "```") {
		return s
	}
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
