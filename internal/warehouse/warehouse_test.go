package warehouse

import (
	"context"
	"strings"
	"testing"

	"adetl/internal/table"
)

type fakeRepo struct {
	dsn string
}

func (r *fakeRepo) EnsureTable(ctx context.Context, name string, schema table.Schema) error {
	return nil
}
func (r *fakeRepo) Replace(ctx context.Context, name string, t *table.Table) error { return nil }
func (r *fakeRepo) Close() error                                                   { return nil }

func init() {
	Register("fake", func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{dsn: cfg.DSN}, nil
	})
}

func TestOpenUsesRegisteredFactory(t *testing.T) {
	repo, err := Open(context.Background(), Config{Kind: "fake", DSN: "dsn://x"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()

	if got := repo.(*fakeRepo).dsn; got != "dsn://x" {
		t.Errorf("dsn = %q", got)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(context.Background(), Config{Kind: "oracle"})
	if err == nil {
		t.Fatal("expected error for unregistered kind")
	}
	if !strings.Contains(err.Error(), "fake") {
		t.Errorf("err = %v, want registered kinds listed", err)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Register("fake", func(ctx context.Context, cfg Config) (Repository, error) { return nil, nil })
}

func TestKindsSorted(t *testing.T) {
	kinds := Kinds()
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Fatalf("kinds not sorted: %v", kinds)
		}
	}
}
