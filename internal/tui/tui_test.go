package tui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/handiism/vidconv/internal/model"
)

type fakeController struct {
	mu        sync.Mutex
	started   []string
	cancelled int
	resets    int
	format    model.TargetFormat
	subs      int
}

func (f *fakeController) Start(url string, creds *model.Credentials) (uint64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, url)
	return uint64(len(f.started)), true
}

func (f *fakeController) Cancel() bool {
	f.cancelled++
	return true
}

func (f *fakeController) Reset() { f.resets++ }

func (f *fakeController) State() model.ConversionState { return model.Idle{} }

func (f *fakeController) TargetFormat() model.TargetFormat { return f.format }

func (f *fakeController) SetTargetFormat(t model.TargetFormat) { f.format = t }

func (f *fakeController) Subscribe(fn func(model.ConversionState)) func() {
	f.subs++
	return func() { f.subs-- }
}

func newTestModel() (Model, *fakeController) {
	ctl := &fakeController{format: model.FormatMP3}
	return NewModel(ctl, nil, "/out"), ctl
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_StartsConversion(t *testing.T) {
	m, ctl := newTestModel()
	defer m.Close()

	m.textInput.SetValue("  https://youtu.be/abc  ")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(ctl.started) != 1 || ctl.started[0] != "https://youtu.be/abc" {
		t.Errorf("started = %v", ctl.started)
	}
}

func TestModel_EmptyURLIgnored(t *testing.T) {
	m, ctl := newTestModel()
	defer m.Close()

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(ctl.started) != 0 {
		t.Errorf("started = %v", ctl.started)
	}
}

func TestModel_ToggleFormat(t *testing.T) {
	m, ctl := newTestModel()
	defer m.Close()

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if ctl.format != model.FormatMP4 {
		t.Fatalf("format = %v, want mp4", ctl.format)
	}
	if !strings.Contains(m.View(), "MP4") {
		t.Error("view does not show the new format")
	}
	update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if ctl.format != model.FormatMP3 {
		t.Errorf("format = %v, want mp3", ctl.format)
	}
}

func TestModel_States(t *testing.T) {
	m, ctl := newTestModel()
	defer m.Close()

	m = update(t, m, StateMsg{State: model.InProgress{Progress: model.ProgressEvent{Fraction: 0.4, Message: "Downloading"}, Gen: 1}})
	if !strings.Contains(m.View(), "Downloading") {
		t.Errorf("progress view:\n%s", m.View())
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if ctl.cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", ctl.cancelled)
	}

	result := model.NewConversionResult("https://youtu.be/abc", model.FormatMP3, "My Song", "", []model.VideoItem{
		{FileName: "My Song.mp3", FilePath: "/out/My Song.mp3", FileSizeBytes: 2 * 1024 * 1024},
	})
	m = update(t, m, StateMsg{State: model.Succeeded{Result: result, Gen: 1}})
	view := m.View()
	if !strings.Contains(view, "My Song") || !strings.Contains(view, "2.00 MB") {
		t.Errorf("success view:\n%s", view)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if ctl.resets != 1 {
		t.Errorf("resets = %d, want 1", ctl.resets)
	}
}

func TestModel_Failed(t *testing.T) {
	m, _ := newTestModel()
	defer m.Close()

	m = update(t, m, StateMsg{State: model.Failed{Reason: "yt-dlp missing", Kind: model.KindAcquisitionUnavailable, Gen: 1}})
	view := m.View()
	if !strings.Contains(view, "yt-dlp missing") || !strings.Contains(view, model.KindAcquisitionUnavailable.String()) {
		t.Errorf("failure view:\n%s", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestModel_LogsDeduplicated(t *testing.T) {
	m, _ := newTestModel()
	defer m.Close()

	for i := 0; i < 3; i++ {
		m = update(t, m, StateMsg{State: model.InProgress{Progress: model.ProgressEvent{Fraction: 0.1 * float64(i), Message: "Downloading"}, Gen: 1}})
	}
	m = update(t, m, StateMsg{State: model.InProgress{Progress: model.ProgressEvent{Fraction: 0.9, Message: "Converting"}, Gen: 1}})

	if len(m.logs) != 2 {
		t.Errorf("logs = %+v, want 2 entries", m.logs)
	}
}

func TestModel_Subscription(t *testing.T) {
	m, ctl := newTestModel()
	if ctl.subs != 1 {
		t.Fatalf("subscriptions = %d, want 1", ctl.subs)
	}
	m.Close()
	if ctl.subs != 0 {
		t.Errorf("subscriptions after Close = %d, want 0", ctl.subs)
	}
}
