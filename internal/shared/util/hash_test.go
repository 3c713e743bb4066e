package util

import (
	"strings"
	"testing"
)

func TestOwnerKeyIsStableOpaqueHex(t *testing.T) {
	id := "google:12345"
	got := OwnerKey(id)
	if got != OwnerKey(id) {
		t.Fatalf("expected stable key, got %s", got)
	}
	if len(got) != 32 {
		t.Fatalf("expected 32 hex characters, got %d", len(got))
	}
	if strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("key contains non-hex characters: %s", got)
	}
	if strings.Contains(got, "12345") {
		t.Fatalf("key leaks the owner id: %s", got)
	}
}

func TestOwnerKeySeparatesOwners(t *testing.T) {
	if OwnerKey("guest:a") == OwnerKey("guest:b") {
		t.Fatalf("distinct owners must not share a key")
	}
}
