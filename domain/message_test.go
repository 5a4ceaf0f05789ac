package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIDGenerator_Next(t *testing.T) {
	req := require.New(t)
	gen, err := NewIDGenerator()
	req.NoError(err)

	at := time.UnixMilli(1760612345123)
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := gen.Next(at)
		req.True(strings.HasPrefix(id, "1760612345123_"), id)
		req.Len(id, len("1760612345123_")+idSuffixLength)
		_, dup := seen[id]
		req.False(dup, "duplicated id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"Plain text", "hello", "hello", true},
		{"Surrounding spaces are trimmed", "  hello \n", "hello", true},
		{"Empty", "", "", false},
		{"Only spaces", "   \t ", "", false},
		{"Exactly the limit", strings.Repeat("é", MaxTextLength), strings.Repeat("é", MaxTextLength), true},
		{"Over the limit", strings.Repeat("a", MaxTextLength+1), strings.Repeat("a", MaxTextLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			text, ok := NormalizeText(tt.input, MaxTextLength)
			req.Equal(tt.ok, ok)
			req.Equal(tt.expected, text)
		})
	}
}

func TestMessage_Ownership(t *testing.T) {
	req := require.New(t)
	alice := User{ID: "2", Username: "user1", Name: "Dimple", Role: RoleUser}
	admin := User{ID: "1", Username: "admin", Name: "Abdur", Role: RoleAdmin}
	msg := Message{ID: "1_a", UserID: alice.ID, Text: "hi"}

	req.True(msg.IsOwnedBy(alice))
	req.False(msg.IsOwnedBy(admin))
	req.True(admin.IsAdmin())
	req.False(alice.IsAdmin())
	req.False(msg.Edited())
}

func TestSnapshot(t *testing.T) {
	req := require.New(t)
	older := Snapshot{Version: 1, Blocked: []string{"3"}}
	newer := Snapshot{Version: 2}

	req.True(older.IsBlocked("3"))
	req.False(older.IsBlocked("2"))
	req.True(newer.Newer(older))
	req.False(older.Newer(newer))
}
