package core

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"github.com/julien-sobczak/mermaid-export/pkg/clock"
	"github.com/stretchr/testify/require"
)

// Reset forces singletons to be recreated. Useful between unit tests.
func Reset() {
	configOnce.Reset()
	loggerOnce.Reset()
}

/* Fixtures */

// SetUpWorkspaceFromConfig populates a temp directory containing a .mermaid-export/config file.
func SetUpWorkspaceFromConfig(t *testing.T, content string) string {
	dirname := t.TempDir()
	configDir := filepath.Join(dirname, ConfigDirName)
	require.NoError(t, os.Mkdir(configDir, os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config"), []byte(content), 0644))

	// Force the application to consider the temporary directory as the home
	t.Setenv("MX_HOME", dirname)
	Reset()
	t.Cleanup(Reset)

	// Force debug level in tests to diagnose more easily
	CurrentLogger().SetVerboseLevel(VerboseDebug)
	CurrentLogger().Debugf("✨ Set up directory %q", dirname)
	return dirname
}

// MustParseDocument parses a HTML document or fails the test.
func MustParseDocument(t *testing.T, markup string) *dom.Document {
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	return doc
}

// MustRender serializes the document or fails the test.
func MustRender(t *testing.T, doc *dom.Document) string {
	var sb strings.Builder
	require.NoError(t, doc.Render(&sb))
	return sb.String()
}

/* Reproducible Tests */

// FreezeNow wraps the clock API to register the cleanup function at the end of the test.
func FreezeNow(t *testing.T) time.Time {
	now := clock.Freeze()
	t.Cleanup(clock.Unfreeze)
	return now.Now()
}

// FreezeAt wraps the clock API to register the cleanup function at the end of the test.
func FreezeAt(t *testing.T, point time.Time) time.Time {
	now := clock.FreezeAt(point)
	t.Cleanup(clock.Unfreeze)
	return now.Now()
}

/* Fakes */

// NoFrames never waits.
type NoFrames struct{}

func (NoFrames) NextFrame(ctx context.Context) error {
	return ctx.Err()
}

// ManualScheduler runs scheduled functions only when fired.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []func()
	delays  []time.Duration
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	s.delays = append(s.delays, d)
}

// Pending returns the number of functions waiting to be fired.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Delays returns the delays of all scheduled functions.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration{}, s.delays...)
}

// Fire runs all pending functions.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// Notice is a message recorded by RecordingNotifier.
type Notice struct {
	Level   string // started, succeeded, warning, failure
	Message string
	Err     error
}

// RecordingNotifier keeps all notices in memory.
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *RecordingNotifier) record(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *RecordingNotifier) Started(noteName string) {
	n.record(Notice{Level: "started", Message: noteName})
}

func (n *RecordingNotifier) Succeeded(location string) {
	n.record(Notice{Level: "succeeded", Message: location})
}

func (n *RecordingNotifier) Warn(message string) {
	n.record(Notice{Level: "warning", Message: message})
}

func (n *RecordingNotifier) Fail(err error) {
	n.record(Notice{Level: "failure", Message: FailureMessage(err), Err: err})
}

// Notices returns the recorded notices.
func (n *RecordingNotifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice{}, n.notices...)
}

// Levels returns the levels of the recorded notices.
func (n *RecordingNotifier) Levels() []string {
	var levels []string
	for _, notice := range n.Notices() {
		levels = append(levels, notice.Level)
	}
	return levels
}

// MemoryVault is a vault keeping files in memory.
type MemoryVault struct {
	mu      sync.Mutex
	folders map[string]bool
	files   map[string][]byte
	// Simulated failure
	FailWrite bool
	created   []string
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		folders: make(map[string]bool),
		files:   make(map[string][]byte),
	}
}

func (v *MemoryVault) Exists(key string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key = strings.Trim(key, "/")
	if key == "" {
		return true, nil
	}
	_, isFile := v.files[key]
	return v.folders[key] || isFile, nil
}

func (v *MemoryVault) CreateFolder(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	key = strings.Trim(key, "/")
	parent := path.Dir(key)
	if parent != "." && !v.folders[parent] {
		return fmt.Errorf("%w: %s", ErrParentNotExist, key)
	}
	v.folders[key] = true
	v.created = append(v.created, key)
	return nil
}

func (v *MemoryVault) WriteBinary(key string, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.FailWrite {
		return fmt.Errorf("simulated write failure on %s", key)
	}
	parent := path.Dir(key)
	if parent != "." && !v.folders[parent] {
		return fmt.Errorf("%w: %s", ErrParentNotExist, key)
	}
	v.files[key] = append([]byte{}, data...)
	return nil
}

// File returns the content of a file.
func (v *MemoryVault) File(key string) ([]byte, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	data, ok := v.files[key]
	return data, ok
}

// CreatedFolders returns the folders in creation order.
func (v *MemoryVault) CreatedFolders() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string{}, v.created...)
}

// StaticEditor is an editor returning a fixed note.
type StaticEditor struct {
	Name string
	Text string
}

func (e StaticEditor) RawText() (string, error) {
	return e.Text, nil
}

func (e StaticEditor) NoteName() string {
	return e.Name
}

// TestExporter regroups an exporter and its fakes.
type TestExporter struct {
	*Exporter
	Engine     *mermaid.StaticEngine
	Converter  *medias.RandomConverter
	Vault      *MemoryVault
	Downloads  string
	Notifier   *RecordingNotifier
	Downloader *DirDownloader
}

// NewTestExporter creates an exporter on the document relying only on fakes.
func NewTestExporter(t *testing.T, doc *dom.Document, markup string) *TestExporter {
	engine := mermaid.NewStaticEngine(markup)
	converter := medias.NewRandomConverter()
	vault := NewMemoryVault()
	notifier := &RecordingNotifier{}
	downloads := filepath.Join(t.TempDir(), "Downloads")
	downloader := NewDirDownloader(downloads, t.TempDir())

	renderer := NewRenderer(doc, engine).WithFrames(NoFrames{}).WithSettleDelay(0)
	exporter := NewExporter(doc, renderer, NewPersister(vault, downloader, notifier)).
		WithConverter(converter).
		WithNotifier(notifier)
	return &TestExporter{
		Exporter:   exporter,
		Engine:     engine,
		Converter:  converter,
		Vault:      vault,
		Downloads:  downloads,
		Notifier:   notifier,
		Downloader: downloader,
	}
}
