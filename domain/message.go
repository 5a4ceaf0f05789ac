// Package domain contains core concepts of the chat system.
// This file defines Message records and the rules applied to their text.
package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jaevor/go-nanoid"
)

const (
	MaxTextLength  = 500
	idSuffixChars  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLength = 9
)

// Message is a chat entry as persisted under the messages key.
// ID never changes once assigned; EditedAt is only set by an edit.
type Message struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	Text      string     `json:"text"`
	Timestamp time.Time  `json:"timestamp"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

func (m Message) IsOwnedBy(user User) bool {
	return m.UserID == user.ID
}

func (m Message) Edited() bool {
	return m.EditedAt != nil
}

// IDGenerator builds message identifiers made of the creation instant in
// milliseconds and a random base36 suffix, e.g. "1760612345123_k3j9x0a2b".
type IDGenerator struct {
	suffix func() string
}

func NewIDGenerator() (IDGenerator, error) {
	suffix, err := nanoid.CustomASCII(idSuffixChars, idSuffixLength)
	if err != nil {
		return IDGenerator{}, fmt.Errorf("message id generator: %w", err)
	}
	return IDGenerator{suffix: suffix}, nil
}

func (g IDGenerator) Next(at time.Time) string {
	return fmt.Sprintf("%d_%s", at.UnixMilli(), g.suffix())
}

// NormalizeText trims the text and reports whether it fits the message bounds.
func NormalizeText(text string, maxLength int) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", false
	}
	if maxLength > 0 && utf8.RuneCountInString(trimmed) > maxLength {
		return trimmed, false
	}
	return trimmed, true
}
