package search

import (
	"strings"
)

// Query represents the structured parameters of a message lookup.
// It decouples the raw console input from the filter applied by the service.
type Query struct {
	RawInput string // The original command typed by the user
	Terms    string // Case-insensitive text matched against text or display name
	Username string // Restricts results to one author, empty means everyone
}

// NewSearchQuery parses a raw string to extract command-line style arguments.
// Example: /list --user user1 hello there
func NewSearchQuery(input string) Query {
	query := Query{RawInput: input}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		// Handle flags like --user user1, a flag without value is dropped
		if strings.HasPrefix(part, "--") {
			if i+1 < len(parts) && strings.TrimPrefix(part, "--") == "user" {
				query.Username = parts[i+1]
			}
			i++
			continue
		}

		// The command itself is not a search term
		if !strings.HasPrefix(part, "/") {
			textTerms = append(textTerms, part)
		}
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

// Empty reports whether the query would match every message.
func (q Query) Empty() bool {
	return q.Terms == "" && q.Username == ""
}

// Matches applies the query to a message author and text.
func (q Query) Matches(username, name, text string) bool {
	if q.Username != "" && username != q.Username {
		return false
	}
	if q.Terms == "" {
		return true
	}
	terms := strings.ToLower(q.Terms)
	return strings.Contains(strings.ToLower(text), terms) ||
		strings.Contains(strings.ToLower(name), terms)
}
