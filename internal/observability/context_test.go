package observability

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithOpID(t *testing.T) {
	ctx := WithOpID(context.Background())
	id := OpID(ctx)
	if id == "" {
		t.Fatal("expected op id")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("op id %q is not a UUID: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Errorf("op id version = %d, want 4", parsed.Version())
	}

	other := OpID(WithOpID(context.Background()))
	if other == id {
		t.Error("op ids should be unique per call")
	}
}

func TestOpID_Missing(t *testing.T) {
	if got := OpID(context.Background()); got != "" {
		t.Errorf("OpID() = %q, want empty", got)
	}
}
