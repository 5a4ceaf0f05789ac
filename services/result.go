package services

import "chat-guard/errors"

// Result is the outcome of a message service call as shown to a user:
// either a success or a kind with a readable message.
type Result struct {
	Success bool        `json:"success"`
	Kind    errors.Kind `json:"kind,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func NewResult(err error) Result {
	if err == nil {
		return Result{Success: true}
	}
	return Result{Kind: errors.KindOf(err), Error: err.Error()}
}
