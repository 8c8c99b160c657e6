package chat

import (
	"time"

	"techhourse/internal/gateway"
)

// Status is the display state of a finished turn.
type Status string

const (
	StatusReplied  Status = "replied"
	StatusTimedOut Status = "timed_out"
	StatusFailed   Status = "failed"
)

// Turn is one user message and the assistant's answer to it.
type Turn struct {
	ID        string       `json:"id"`
	Message   string       `json:"message"`
	Status    Status       `json:"status"`
	Text      string       `json:"text"`
	Kind      gateway.Kind `json:"kind"`
	Prompt    string       `json:"-"`
	Started   time.Time    `json:"started_at"`
	ElapsedMS int64        `json:"elapsed_ms"`
	Err       error        `json:"-"`
}

// Replied reports whether the turn carries a model reply.
func (t Turn) Replied() bool { return t.Status == StatusReplied }

func statusFor(k gateway.Kind) Status {
	switch k {
	case gateway.KindOK:
		return StatusReplied
	case gateway.KindTimedOut:
		return StatusTimedOut
	default:
		return StatusFailed
	}
}
