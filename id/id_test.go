package id_test

import (
	"testing"

	"github.com/xraph/pushsync/id"
)

func TestNewAndParse(t *testing.T) {
	t.Parallel()

	jid := id.NewJobID()
	if jid.IsNil() {
		t.Fatal("new job ID should not be nil")
	}
	if jid.Prefix() != id.PrefixJob {
		t.Fatalf("prefix = %q, want %q", jid.Prefix(), id.PrefixJob)
	}

	parsed, err := id.ParseJobID(jid.String())
	if err != nil {
		t.Fatalf("parse round-trip: %v", err)
	}
	if parsed.String() != jid.String() {
		t.Fatalf("round-trip = %q, want %q", parsed.String(), jid.String())
	}
}

func TestParseRejectsWrongPrefix(t *testing.T) {
	t.Parallel()

	sid := id.NewSessionID()
	if _, err := id.ParseJobID(sid.String()); err == nil {
		t.Fatal("expected error parsing session ID as job ID")
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	if _, err := id.Parse(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}

func TestNilID(t *testing.T) {
	t.Parallel()

	var zero id.ID
	if !zero.IsNil() {
		t.Fatal("zero ID should be nil")
	}
	if zero.String() != "" {
		t.Fatalf("nil ID string = %q, want empty", zero.String())
	}
}

func TestTextMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	jid := id.NewJobID()
	data, err := jid.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back id.ID
	if err := back.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != jid.String() {
		t.Fatalf("round-trip = %q, want %q", back.String(), jid.String())
	}
}
