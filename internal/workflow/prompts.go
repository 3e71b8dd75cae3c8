package workflow

import (
	"fmt"
	"strings"

	"github.com/kcvinod/triage/internal/email"
	"github.com/kcvinod/triage/internal/kb"
)

const classifyInstructions = `You are an assistant that classifies customer support emails.
Respond with a single JSON object with exactly these keys: intent, urgency, complexity, summary.
intent must be one of: account, billing, bug, feature_request, technical_issue, general_inquiry.
urgency must be one of: low, medium, high.
complexity must be one of: low, medium, high.
summary is one sentence describing the customer's problem.
Do not include any text outside the JSON object.`

const draftInstructions = `You are an assistant that drafts professional customer support replies.
Write a reply to the email below using its classification and the knowledge base results.
Reply with the email body only.`

const noResults = "No results found"

// ClassifyPrompt builds the classification request for doc.
func ClassifyPrompt(doc email.Document) string {
	var sb strings.Builder
	sb.WriteString(classifyInstructions)
	sb.WriteString("\n\n")
	writeEmail(&sb, doc)
	return sb.String()
}

// DraftPrompt builds the reply request from the email, its classification,
// and any knowledge base results.
func DraftPrompt(doc email.Document, c Classification, results []kb.Result) string {
	var sb strings.Builder
	sb.WriteString(draftInstructions)
	sb.WriteString("\n\n")
	writeEmail(&sb, doc)

	fmt.Fprintf(&sb, "\nIntent: %s\n", c.Intent)
	fmt.Fprintf(&sb, "Urgency: %s\n", c.Urgency)
	fmt.Fprintf(&sb, "Complexity: %s\n", c.Complexity)
	fmt.Fprintf(&sb, "Summary: %s\n", c.Summary)

	sb.WriteString("\nKnowledge Base Search Results:\n")
	if len(results) == 0 {
		sb.WriteString(noResults)
		sb.WriteString("\n")
		return sb.String()
	}
	for _, r := range results {
		fmt.Fprintf(&sb, "- %s (%.2f): %s\n", r.Reference, r.RelevanceScore, r.Excerpt)
	}

	return sb.String()
}

func writeEmail(sb *strings.Builder, doc email.Document) {
	fmt.Fprintf(sb, "Email Subject: %s\n", doc.Subject)
	fmt.Fprintf(sb, "Email Body: %s\n", doc.Body)
}
