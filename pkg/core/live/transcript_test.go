package live

import "testing"

func TestTranscriptMergesFragments(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RoleUser, "He")
	tr.Append(RoleUser, "llo")
	tr.Finalize(RoleUser)

	entries := tr.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Role != RoleUser || got.Text != "Hello" || !got.IsFinal {
		t.Errorf("expected {user Hello final}, got %+v", got)
	}

	// A fragment after finalization starts a fresh entry.
	tr.Append(RoleModel, "Hi")
	entries = tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Role != RoleModel || entries[1].Text != "Hi" || entries[1].IsFinal {
		t.Errorf("expected non-final {model Hi}, got %+v", entries[1])
	}
}

func TestTranscriptRoleChangeStartsNewEntry(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RoleUser, "Hej")
	tr.Append(RoleModel, "Hej ")
	tr.Append(RoleModel, "där")

	entries := tr.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "Hej" || entries[1].Text != "Hej där" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestTranscriptTurnCompleteFinalizesBothRoles(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RoleUser, "Hej")
	tr.Append(RoleModel, "Hej där")
	tr.Finalize(RoleUser)
	tr.Finalize(RoleModel)

	for i, e := range tr.Entries() {
		if !e.IsFinal {
			t.Errorf("entry %d (%s) still pending: %+v", i, e.Role, e)
		}
	}
}

func TestTranscriptFinalizeSweepsInterleavedEntries(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RoleUser, "Hej")
	tr.Append(RoleModel, "Hej ")
	tr.Append(RoleUser, " då")
	tr.Finalize(RoleUser)
	tr.Finalize(RoleModel)

	entries := tr.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}
	for i, e := range entries {
		if !e.IsFinal {
			t.Errorf("entry %d (%s %q) still pending after turn complete", i, e.Role, e.Text)
		}
	}
}

func TestTranscriptFinalizeIdempotent(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RoleUser, "Hej")
	tr.Finalize(RoleUser)
	tr.Finalize(RoleUser)
	tr.Finalize(RoleModel) // no model entry; no-op

	entries := tr.Entries()
	if len(entries) != 1 || !entries[0].IsFinal {
		t.Errorf("unexpected entries after repeated finalize: %+v", entries)
	}
}

func TestTranscriptEntriesReturnsCopy(t *testing.T) {
	tr := NewTranscript()
	tr.Append(RoleUser, "Hej")

	entries := tr.Entries()
	entries[0].Text = "mutated"

	if got := tr.Entries()[0].Text; got != "Hej" {
		t.Errorf("internal state mutated through snapshot: %q", got)
	}
}
