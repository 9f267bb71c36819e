package ingestion

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeImporter struct {
	mu     sync.Mutex
	bodies map[string]string
	failOn string
}

func (f *fakeImporter) ImportPositions(ctx context.Context, userID string, r io.Reader) (int, error) {
	if userID == f.failOn {
		return 0, errors.New("invalid portfolio import")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[userID] = string(b)
	return strings.Count(string(b), "\n") - 1, nil
}

func writeFile(t *testing.T, dir, name string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const header = "symbol;shares;average_cost\n"

func TestImportDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bob.csv", header+"AAPL;1;100\nMSFT;2;300\n")
	writeFile(t, dir, "alice.csv", header+"TSLA;3;200\n")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, ".csv", header)
	if err := os.Mkdir(filepath.Join(dir, "nested.csv"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	imp := &fakeImporter{}
	got, err := ImportDirectory(context.Background(), dir, imp, 2)
	if err != nil {
		t.Fatalf("ImportDirectory: %v", err)
	}

	want := []Result{
		{UserID: "alice", File: "alice.csv", Positions: 1},
		{UserID: "bob", File: "bob.csv", Positions: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if !strings.HasPrefix(imp.bodies["bob"], header) {
		t.Fatalf("file content not streamed: %q", imp.bodies["bob"])
	}
}

func TestImportDirectory_Errors(t *testing.T) {
	t.Run("missing dir", func(t *testing.T) {
		if _, err := ImportDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), &fakeImporter{}, 0); err == nil {
			t.Fatalf("expected error for missing directory")
		}
	})

	t.Run("no files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "readme.md", "x")
		_, err := ImportDirectory(context.Background(), dir, &fakeImporter{}, 0)
		if err == nil || !strings.Contains(err.Error(), "no .csv files") {
			t.Fatalf("expected no-files error, got %v", err)
		}
	})

	t.Run("failing file", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "good.csv", header+"AAPL;1;1\n")
		writeFile(t, dir, "bad.csv", "wrong;header\n")
		_, err := ImportDirectory(context.Background(), dir, &fakeImporter{failOn: "bad"}, 1)
		if err == nil || !strings.Contains(err.Error(), "bad.csv") {
			t.Fatalf("expected error naming the file, got %v", err)
		}
	})
}
