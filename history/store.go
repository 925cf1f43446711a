package history

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nachoal/jais-prompt-go/conversation"
	"github.com/nachoal/jais-prompt-go/llm"
	"github.com/nachoal/jais-prompt-go/template"
)

const formatVersion = "1.0"

// Store persists transcripts as one JSON file each plus a meta index
type Store struct {
	dir      string
	metaPath string
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewStore creates the directory if needed and initializes the meta index
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		dir:      dir,
		metaPath: filepath.Join(dir, "meta.json"),
		logger:   logger,
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcripts directory: %w", err)
	}

	if _, err := os.Stat(s.metaPath); os.IsNotExist(err) {
		if err := s.saveMeta(&MetaIndex{
			Version:    formatVersion,
			EntryIndex: make(map[string][]string),
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize meta index: %w", err)
		}
	}

	return s, nil
}

// Start creates a transcript for a benchmark entry from a session
func (s *Store) Start(entryID string, session *conversation.Session) (*Transcript, error) {
	now := time.Now()
	t := &Transcript{
		ID:        generateULID(now),
		Version:   formatVersion,
		EntryID:   entryID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.Capture(session)

	s.mu.Lock()
	err := s.updateEntryIndex(entryID, t.ID)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to update entry index: %w", err)
	}

	return t, nil
}

// Save writes a transcript to disk
func (s *Store) Save(t *Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.UpdatedAt = time.Now()
	if t.Title == "" {
		t.Title = generateTitle(t)
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	if err := os.WriteFile(s.path(t.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript file: %w", err)
	}

	meta, err := s.loadMeta()
	if err != nil {
		return fmt.Errorf("failed to load meta: %w", err)
	}
	meta.LastTranscript = t.ID
	if err := s.saveMeta(meta); err != nil {
		return fmt.Errorf("failed to save meta: %w", err)
	}

	s.logger.Debug("saved transcript", "id", t.ID, "entry", t.EntryID, "messages", t.Messages.Len())
	return nil
}

// Load reads a transcript from disk
func (s *Store) Load(id string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript file: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	if t.Messages == nil {
		t.Messages = conversation.NewHistory()
	}

	return &t, nil
}

// Last returns the most recently saved transcript
func (s *Store) Last() (*Transcript, error) {
	s.mu.RLock()
	meta, err := s.loadMeta()
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load meta: %w", err)
	}

	if meta.LastTranscript == "" {
		return nil, fmt.Errorf("no transcripts saved yet")
	}
	return s.Load(meta.LastTranscript)
}

// Latest returns the most recent transcript for a benchmark entry
func (s *Store) Latest(entryID string) (*Transcript, error) {
	s.mu.RLock()
	meta, err := s.loadMeta()
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load meta: %w", err)
	}

	ids, ok := meta.EntryIndex[entryID]
	if !ok || len(ids) == 0 {
		return nil, fmt.Errorf("no transcripts found for entry: %s", entryID)
	}

	return s.Load(ids[len(ids)-1])
}

// List returns transcripts for an entry, newest first. An empty entryID
// lists every entry.
func (s *Store) List(entryID string) ([]Summary, error) {
	s.mu.RLock()
	meta, err := s.loadMeta()
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to load meta: %w", err)
	}

	var ids []string
	if entryID == "" {
		for _, entryIDs := range meta.EntryIndex {
			ids = append(ids, entryIDs...)
		}
	} else {
		ids = meta.EntryIndex[entryID]
	}

	summaries := []Summary{}
	for _, id := range ids {
		t, err := s.Load(id)
		if err != nil {
			// Started but never saved
			s.logger.Debug("skipping transcript", "id", id, "error", err)
			continue
		}

		summaries = append(summaries, Summary{
			ID:        t.ID,
			EntryID:   t.EntryID,
			Title:     t.Title,
			Dialect:   t.Dialect,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
			Messages:  t.Messages.Len(),
			Usage:     t.Usage,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID > summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	return summaries, nil
}

// Capture copies the session state into the transcript
func (t *Transcript) Capture(session *conversation.Session) {
	t.Dialect = session.Dialect().Name
	t.Functions = session.Functions()
	t.Messages = session.History()
	t.Usage = session.Usage()
}

// Session resumes the transcript as a live conversation
func (t *Transcript) Session(opts ...conversation.Option) (*conversation.Session, error) {
	dialect, err := template.Lookup(t.Dialect)
	if err != nil {
		return nil, err
	}

	messages := t.Messages
	if messages == nil {
		messages = conversation.NewHistory()
	}

	base := []conversation.Option{
		conversation.WithDialect(dialect),
		conversation.WithFunctions(t.Functions),
		conversation.WithHistory(messages),
		conversation.WithUsage(t.Usage),
	}
	return conversation.NewSession(append(base, opts...)...), nil
}

// Private methods

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) loadMeta() (*MetaIndex, error) {
	data, err := os.ReadFile(s.metaPath)
	if err != nil {
		return nil, err
	}

	var meta MetaIndex
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) saveMeta(meta *MetaIndex) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.metaPath, data, 0644)
}

func (s *Store) updateEntryIndex(entryID, id string) error {
	meta, err := s.loadMeta()
	if err != nil {
		return err
	}

	if meta.EntryIndex == nil {
		meta.EntryIndex = make(map[string][]string)
	}
	meta.EntryIndex[entryID] = append(meta.EntryIndex[entryID], id)

	return s.saveMeta(meta)
}

func generateTitle(t *Transcript) string {
	for _, msg := range t.Messages.Messages() {
		if msg.Role == llm.RoleUser {
			// First line, at most 50 characters
			content := strings.TrimSpace(msg.Content)
			if idx := strings.IndexByte(content, '\n'); idx != -1 {
				content = content[:idx]
			}
			if runes := []rune(content); len(runes) > 50 {
				content = string(runes[:47]) + "..."
			}
			if content != "" {
				return content
			}
		}
	}

	return fmt.Sprintf("Transcript %s", t.CreatedAt.Format("Jan 02 15:04"))
}

func generateULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
