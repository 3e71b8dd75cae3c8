// Package email parses minimal plain-text support emails into structured
// documents.
package email

// NoSubject is the placeholder subject for emails without a Subject header.
const NoSubject = "(no subject)"

// Document is a parsed support email. It is produced once per triage run and
// never modified afterward.
type Document struct {
	Subject   string `json:"subject"`
	Sender    string `json:"from"`
	Recipient string `json:"to"`
	Body      string `json:"body"`
	Raw       string `json:"-"`
}
