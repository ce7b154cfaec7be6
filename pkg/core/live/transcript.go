package live

import "sync"

// Role identifies the speaker of a transcription entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Entry is one merged transcription line. The tail entry for a role grows as
// fragments stream in and is frozen when the turn completes.
type Entry struct {
	Role    Role   `json:"role"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// Transcript merges streamed partial text fragments per speaker role into
// growing entries. Entries are append-only; only the last entry of a given
// role may be mutated, and only until it is finalized.
type Transcript struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append merges a text fragment into the transcript. If the last entry has
// the same role and is not final the fragment is concatenated onto it;
// otherwise a new non-final entry is started.
func (t *Transcript) Append(role Role, fragment string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.entries); n > 0 {
		last := &t.entries[n-1]
		if last.Role == role && !last.IsFinal {
			last.Text += fragment
			return
		}
	}
	t.entries = append(t.entries, Entry{Role: role, Text: fragment})
}

// Finalize freezes every open entry for the given role. A role can have
// more than one non-final entry when speakers interleave within a turn, so
// the whole tail is swept, not just the most recent entry. Finalizing a
// role with no open entries is a no-op.
func (t *Transcript) Finalize(role Role) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].Role == role {
			t.entries[i].IsFinal = true
		}
	}
}

// Entries returns a copy of the ordered transcription sequence.
func (t *Transcript) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
