package history

import (
	"time"

	"github.com/nachoal/jais-prompt-go/conversation"
	"github.com/nachoal/jais-prompt-go/llm"
)

// Transcript is one persisted conversation for a benchmark entry
type Transcript struct {
	ID        string                `json:"id"`
	Version   string                `json:"version"`
	EntryID   string                `json:"entry_id"`
	Dialect   string                `json:"dialect"`
	Title     string                `json:"title"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Functions []llm.Function        `json:"functions,omitempty"`
	Messages  *conversation.History `json:"messages"`
	Usage     llm.Usage             `json:"usage"`
}

// MetaIndex maps benchmark entries to their transcripts
type MetaIndex struct {
	Version        string              `json:"version"`
	LastTranscript string              `json:"last_transcript_id,omitempty"`
	EntryIndex     map[string][]string `json:"entry_index"`
}

// Summary provides overview information for transcript listing
type Summary struct {
	ID        string    `json:"id"`
	EntryID   string    `json:"entry_id"`
	Title     string    `json:"title"`
	Dialect   string    `json:"dialect"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  int       `json:"messages"`
	Usage     llm.Usage `json:"usage"`
}
