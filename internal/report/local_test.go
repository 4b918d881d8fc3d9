package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

func TestLocalFileStore_PutAndGet(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"id":"run-1","invalid":["a@x.io"]}`)

	if err := store.Put(ctx, "run-1.json", data); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "run-1.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get = %q, want %q", got, data)
	}
}

func TestLocalFileStore_GetNotFound(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	_, err = store.Get(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing: got err=%v, want ErrNotFound", err)
	}
}

func TestLocalFileStore_DeleteIdempotent(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	ctx := context.Background()
	if err := store.Put(ctx, "r.json", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Delete(ctx, "r.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "r.json"); err != nil {
		t.Errorf("second Delete: got err=%v, want nil", err)
	}
	if _, err := store.Get(ctx, "r.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: got err=%v, want ErrNotFound", err)
	}
}

func TestLocalFileStore_RejectsPathNames(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	for _, name := range []string{"", "..", "../escape.json", "a/b.json", `a\b.json`} {
		if err := store.Put(context.Background(), name, []byte("x")); err == nil {
			t.Errorf("Put(%q) succeeded, want error", name)
		}
	}
}

func TestLocalFileStore_AutoCreateDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	store, err := NewLocalFileStore(dir)
	if err != nil {
		t.Fatalf("NewLocalFileStore with nested dir: %v", err)
	}
	if err := store.Put(context.Background(), "r.json", []byte("nested")); err != nil {
		t.Fatalf("Put after auto-create: %v", err)
	}
}

func TestLocalFileStore_ConcurrentAccess(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFileStore: %v", err)
	}

	ctx := context.Background()
	const n = 30
	var wg sync.WaitGroup

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("run-%d.json", i)
			if err := store.Put(ctx, name, []byte(name)); err != nil {
				t.Errorf("concurrent Put(%s): %v", name, err)
			}
		}()
	}
	wg.Wait()

	for i := range n {
		name := fmt.Sprintf("run-%d.json", i)
		got, err := store.Get(ctx, name)
		if err != nil {
			t.Errorf("Get(%s): %v", name, err)
			continue
		}
		if string(got) != name {
			t.Errorf("Get(%s) = %q", name, got)
		}
	}
}
