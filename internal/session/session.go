package session

import (
	"time"

	"github.com/crowagent/crowagent/internal/schema"
)

// Session is one saved advisory conversation. The orchestrator never holds
// one; callers load the history, run a turn and save the result.
type Session struct {
	Key       string
	Segment   string
	Messages  schema.Messages
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is the metadata line of a session file.
type Summary struct {
	Key       string `json:"key"`
	Segment   string `json:"segment"`
	Messages  int    `json:"messages"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Path      string `json:"path"`
}

// metadataLine is the first line of every session file.
type metadataLine struct {
	Type      string `json:"_type"`
	Key       string `json:"key"`
	Segment   string `json:"segment"`
	Messages  int    `json:"messages"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

const metadataType = "metadata"
