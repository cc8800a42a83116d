package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/handiism/vidconv/internal/model"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func result(url, path string, size int64) *model.ConversionResult {
	return model.NewConversionResult(url, model.FormatMP3, "Title "+url, "", []model.VideoItem{
		{FileName: filepath.Base(path), FilePath: path, FileSizeBytes: size, DurationMillis: 1000},
	})
}

func TestStore_RecordAndList(t *testing.T) {
	s := openStore(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := context.Background()
	s.OnCompleted(ctx, result("https://a", "/out/a.mp3", 10))
	s.OnCompleted(ctx, result("https://b", "/out/b.mp3", 20))

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []Entry{
		{SourceURL: "https://b", Title: "Title https://b", FilePath: "/out/b.mp3", FileSizeBytes: 20, DurationMillis: 1000, Items: 1, CompletedAt: base.Add(2 * time.Minute)},
		{SourceURL: "https://a", Title: "Title https://a", FilePath: "/out/a.mp3", FileSizeBytes: 10, DurationMillis: 1000, Items: 1, CompletedAt: base.Add(time.Minute)},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Entry{}, "ID")); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.List(ctx, 1)
	if err != nil || len(limited) != 1 || limited[0].SourceURL != "https://b" {
		t.Errorf("List(1) = %+v, %v", limited, err)
	}
}

func TestStore_SameFileReplaces(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, result("https://a", "/out/a.mp3", 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, result("https://a", "/out/a.mp3", 99)); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FileSizeBytes != 99 {
		t.Errorf("List() = %+v, want one entry of 99 bytes", got)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Record(context.Background(), result("https://a", "/out/a.mp4", 1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	got, err := s.List(context.Background(), 0)
	if err != nil || len(got) != 1 {
		t.Errorf("List() after reopen = %+v, %v", got, err)
	}
}
