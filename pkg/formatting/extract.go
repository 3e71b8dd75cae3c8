package formatting

import (
	"encoding/json"
	"regexp"
	"strings"
)

// fencedBlock matches the first ``` or ~~~ fenced block, with or without a
// language tag, anywhere in the content.
var fencedBlock = regexp.MustCompile("(?s)(?:```|~~~)[^\\n]*\\n(.*?)(?:```|~~~)")

var fenceTag = regexp.MustCompile(`^[A-Za-z0-9_+-]*`)

// Extract recovers a JSON object from free-form model output. The content is
// tried as-is, then with surrounding fence markers removed, then from the
// first fenced block embedded in prose. It returns nil when no attempt yields
// a JSON object; it never panics and never returns an error.
func Extract(text string) map[string]any {
	content := strings.TrimSpace(text)

	if m := decodeObject(content); m != nil {
		return m
	}

	if m := decodeObject(StripFences(content)); m != nil {
		return m
	}

	if matches := fencedBlock.FindStringSubmatch(content); len(matches) == 2 {
		if m := decodeObject(strings.TrimSpace(matches[1])); m != nil {
			return m
		}
	}

	return nil
}

// StripFences removes a leading ``` or ~~~ marker with its optional language
// tag and a trailing marker, then trims whitespace.
func StripFences(content string) string {
	s := strings.TrimSpace(content)

	for _, fence := range []string{"```", "~~~"} {
		if rest, ok := strings.CutPrefix(s, fence); ok {
			s = fenceTag.ReplaceAllString(rest, "")
			break
		}
	}

	for _, fence := range []string{"```", "~~~"} {
		if rest, ok := strings.CutSuffix(strings.TrimSpace(s), fence); ok {
			s = rest
			break
		}
	}

	return strings.TrimSpace(s)
}

func decodeObject(s string) map[string]any {
	if s == "" {
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil
	}
	return m
}
