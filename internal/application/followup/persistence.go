package followup

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
	"github.com/bryanwahyu/lawagent/internal/domain/session"
)

// StateKey is the session storage key of the follow-up snapshot.
const StateKey = "lawagent:issue-spotter:followup-state"

const defaultStoreTimeout = 5 * time.Second

// Snapshot is the persisted follow-up state.
type Snapshot struct {
	Transcript     []conversation.Message        `json:"transcript"`
	History        []conversation.HistoryMessage `json:"history"`
	LatestAnalysis *analysis.Result              `json:"latestAnalysis"`
	Instruction    string                        `json:"instruction"`
	Style          string                        `json:"style"`
	Document       string                        `json:"document"`
}

// Persister writes and reads snapshots through a session store. Every
// failure is logged and swallowed: persistence never breaks the session.
type Persister struct {
	store   session.Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewPersister wraps store. A nil store disables persistence.
func NewPersister(store session.Store, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{store: store, logger: logger, timeout: defaultStoreTimeout}
}

// Enabled reports whether a store is configured.
func (p *Persister) Enabled() bool { return p != nil && p.store != nil }

// Save writes snap under StateKey.
func (p *Persister) Save(snap Snapshot) {
	if !p.Enabled() {
		return
	}
	if snap.Transcript == nil {
		snap.Transcript = []conversation.Message{}
	}
	if snap.History == nil {
		snap.History = []conversation.HistoryMessage{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		p.logger.Warn("unable to encode follow-up state", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.store.Set(ctx, StateKey, string(data)); err != nil {
		p.logger.Warn("unable to persist follow-up state", "error", err)
	}
}

// Load reads the stored snapshot. It returns nil when nothing usable is
// stored. Invalid messages are dropped, a malformed analysis is discarded
// and non-text metadata becomes empty.
func (p *Persister) Load() *Snapshot {
	if !p.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	value, found, err := p.store.Get(ctx, StateKey)
	if err != nil {
		p.logger.Warn("unable to read follow-up state", "error", err)
		return nil
	}
	if !found || value == "" {
		return nil
	}
	snap, err := decodeSnapshot([]byte(value))
	if err != nil {
		p.logger.Warn("unable to restore follow-up state", "error", err)
		return nil
	}
	return snap
}

// Clear removes the stored snapshot.
func (p *Persister) Clear() {
	if !p.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.store.Remove(ctx, StateKey); err != nil {
		p.logger.Warn("unable to clear follow-up state", "error", err)
	}
}

type storedSnapshot struct {
	Transcript     json.RawMessage `json:"transcript"`
	History        json.RawMessage `json:"history"`
	LatestAnalysis json.RawMessage `json:"latestAnalysis"`
	Instruction    json.RawMessage `json:"instruction"`
	Style          json.RawMessage `json:"style"`
	Document       json.RawMessage `json:"document"`
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var stored storedSnapshot
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Instruction: stringOrEmpty(stored.Instruction),
		Style:       stringOrEmpty(stored.Style),
		Document:    stringOrEmpty(stored.Document),
	}
	for _, raw := range rawMessages(stored.Transcript) {
		if msg, ok := conversation.NormalizeMessage(raw); ok {
			snap.Transcript = append(snap.Transcript, msg)
		}
	}
	for _, raw := range rawMessages(stored.History) {
		if msg, ok := conversation.SanitizeHistory(raw); ok {
			snap.History = append(snap.History, msg)
		}
	}
	if trimmed := bytes.TrimSpace(stored.LatestAnalysis); len(trimmed) > 0 && trimmed[0] == '{' {
		var result analysis.Result
		if err := json.Unmarshal(trimmed, &result); err == nil {
			snap.LatestAnalysis = &result
		}
	}
	return snap, nil
}

// rawMessages decodes a JSON array of objects, skipping non-object entries.
// Anything other than an array yields nothing.
func rawMessages(data json.RawMessage) []conversation.Raw {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]conversation.Raw, 0, len(items))
	for _, item := range items {
		var raw conversation.Raw
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		out = append(out, raw)
	}
	return out
}

func stringOrEmpty(data json.RawMessage) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	return s
}
