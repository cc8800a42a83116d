package route

import (
	"sync"
	"testing"
)

func TestSelector_Select(t *testing.T) {
	sel := DefaultSelector()

	tests := []struct {
		url  string
		want Strategy
	}{
		{"https://youtube.com/watch?v=abc", Platform},
		{"https://www.youtube.com/watch?v=abc", Platform},
		{"https://m.youtube.com/watch?v=abc", Platform},
		{"https://music.youtube.com/watch?v=abc", Platform},
		{"https://YOUTU.BE/abc", Platform},
		{"https://vimeo.com/12345", Platform},
		{"https://cdn.example.com/video.mp4", Direct},
		{"https://notyoutube.com/watch", Direct},
		{"https://youtube.com.evil.example/watch", Direct},
		{"not a url at all", Direct},
		{"", Direct},
		{"://broken", Direct},
		{"youtube.com/watch?v=x", Platform},
		{"www.youtube.com/watch?v=x", Platform},
		{"  youtu.be/abc  ", Platform},
		{"cdn.example.com/video.mp4", Direct},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := sel.Select(tt.url); got != tt.want {
				t.Errorf("Select(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"youtube.com/watch?v=x", "https://youtube.com/watch?v=x"},
		{" www.youtube.com/watch?v=x ", "https://www.youtube.com/watch?v=x"},
		{"cdn.example.com:8080/a.mp4", "https://cdn.example.com:8080/a.mp4"},
		{"https://youtu.be/abc", "https://youtu.be/abc"},
		{"http://cdn.example.com/a.mp4", "http://cdn.example.com/a.mp4"},
		{"/local/file.mp4", "/local/file.mp4"},
		{"not a url at all", "not a url at all"},
		{"localhost", "localhost"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSelector_Add(t *testing.T) {
	sel := NewSelector()
	if got := sel.Select("https://media.example.org/x"); got != Direct {
		t.Fatalf("Select() = %v before Add, want direct", got)
	}

	sel.Add("Example.ORG", "  ", "https://peertube.example/")
	if got := sel.Select("https://media.example.org/x"); got != Platform {
		t.Errorf("Select() = %v after Add, want platform", got)
	}
	if got := sel.Select("https://peertube.example/w/1"); got != Platform {
		t.Errorf("URL-form domain not registered, got %v", got)
	}

	want := []string{"example.org", "peertube.example"}
	got := sel.Domains()
	if len(got) != len(want) {
		t.Fatalf("Domains() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Domains()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSelector_Concurrent(t *testing.T) {
	sel := DefaultSelector()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sel.Add("example.net")
		}()
		go func() {
			defer wg.Done()
			_ = sel.Select("https://youtube.com/watch?v=1")
		}()
	}
	wg.Wait()
	if sel.Select("https://example.net/a.mp4") != Platform {
		t.Error("example.net should be registered")
	}
}

func TestStrategy_String(t *testing.T) {
	if Platform.String() != "platform" || Direct.String() != "direct" {
		t.Errorf("String() = %q / %q", Platform, Direct)
	}
}
