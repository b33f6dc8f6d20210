package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := New("cs")
		if !strings.HasPrefix(id, "cs-") {
			t.Fatalf("expected cs- prefix, got %s", id)
		}
		if _, err := uuid.Parse(strings.TrimPrefix(id, "cs-")); err != nil {
			t.Fatalf("expected uuid suffix in %s: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}
