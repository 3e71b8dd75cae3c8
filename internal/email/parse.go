package email

import "strings"

var headerKeys = map[string]string{
	"Subject:": "subject",
	"From:":    "from",
	"To:":      "to",
}

// Parse splits raw email text into headers and body. Header lines are only
// recognized before the first blank line; after it every non-blank line is
// body, including lines that look like headers. Parse never fails: missing
// headers yield empty strings and a missing subject yields NoSubject.
func Parse(raw string) Document {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	headers := make(map[string]string, len(headerKeys))

	var body []string
	inBody := false

	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")

		if !inBody {
			if key, value, ok := header(line); ok {
				headers[key] = value
				continue
			}
		}

		if strings.TrimSpace(line) == "" {
			inBody = true
			continue
		}

		if inBody {
			body = append(body, line)
		}
	}

	doc := Document{
		Subject:   NoSubject,
		Sender:    headers["from"],
		Recipient: headers["to"],
		Body:      strings.TrimSpace(strings.Join(body, "\n")),
		Raw:       raw,
	}
	if subject, ok := headers["subject"]; ok {
		doc.Subject = subject
	}
	return doc
}

func header(line string) (key, value string, ok bool) {
	for prefix, key := range headerKeys {
		if rest, found := strings.CutPrefix(line, prefix); found {
			return key, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}
