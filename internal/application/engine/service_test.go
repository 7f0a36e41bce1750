package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/history"
	"github.com/doeshing/formatapi/internal/infrastructure/templates"
	"github.com/doeshing/formatapi/internal/pkg/logger"
)

type stubExtractor struct {
	models  []string
	err     error
	release chan struct{}
	started chan struct{}
}

func (s *stubExtractor) ExtractModels(ctx context.Context, _ string, _ string) ([]string, error) {
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.models, s.err
}

func (s *stubExtractor) ExtractModelsBatch(ctx context.Context, paths []string, mode string) ([]string, error) {
	return s.ExtractModels(ctx, paths[0], mode)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	return &Service{
		History:   history.NewFileStore(filepath.Join(dir, domain.HistoryFile), 0),
		Templates: templates.NewFileStore(filepath.Join(dir, domain.TemplatesFile)),
		OCR:       &stubExtractor{},
		Clock:     NewClock(),
		Logger:    logger.Discard(),
	}
}

func TestParseTextScenario(t *testing.T) {
	s := newTestService(t)
	rec := s.ParseText("BASE_URL=https://api.example.com/v1\nAPI_KEY=sk-aaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Equal(t, "https://api.example.com/v1", rec.BaseURL)
	assert.Equal(t, "sk-aaaaaaaaaaaaaaaaaaaaaaaa", rec.APIKey)
	assert.Equal(t, []string{}, rec.Models)
}

func TestFormatOutput(t *testing.T) {
	s := newTestService(t)

	out, err := s.FormatOutput(FormatRequest{BaseURL: "https://x", APIKey: "k1", Models: []string{"a", "b"}, FormatType: "env"})
	require.NoError(t, err)
	assert.Equal(t, "BASE_URL=https://x\nAPI_KEY=k1\nMODELS=a,b\n", out)

	out, err = s.FormatOutput(FormatRequest{APIKey: "k1", FormatType: "custom", CustomTemplate: "{{api_key}}"})
	require.NoError(t, err)
	assert.Equal(t, "k1", out)

	out, err = s.FormatOutput(FormatRequest{FormatType: "custom", CustomTemplate: "{{api_key}}"})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	var fe *domain.FormatError
	_, err = s.FormatOutput(FormatRequest{FormatType: "custom"})
	assert.True(t, errors.As(err, &fe))
	_, err = s.FormatOutput(FormatRequest{FormatType: "ini"})
	assert.True(t, errors.As(err, &fe))
}

func TestCaptureTextAssignsUniqueTimestamps(t *testing.T) {
	s := newTestService(t)
	frozen := time.UnixMilli(1_700_000_000_000)
	s.Clock.now = func() time.Time { return frozen }

	first, err := s.CaptureText("API_KEY=sk-aaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	second, err := s.CaptureText("https://api.openai.com/v1")
	require.NoError(t, err)

	assert.Equal(t, frozen.UnixMilli(), first.Timestamp)
	assert.Greater(t, second.Timestamp, first.Timestamp)
	assert.Equal(t, "openai", second.Vendor)

	records, err := s.LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].Timestamp, records[1].Timestamp)
}

func TestConcurrentCaptures(t *testing.T) {
	s := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CaptureText("sk-aaaaaaaaaaaaaaaaaaaaaaaa")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 10)
	seen := map[int64]bool{}
	for _, r := range records {
		assert.False(t, seen[r.Timestamp])
		seen[r.Timestamp] = true
	}
}

func TestAddHistoryItemRejectsDuplicate(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.AddHistoryItem(domain.Record{Timestamp: 5, APIKey: "a"}))
	err := s.AddHistoryItem(domain.Record{Timestamp: 5, APIKey: "b"})
	assert.ErrorIs(t, err, domain.ErrDuplicateTimestamp)

	// the clock moves past externally supplied timestamps
	assert.Greater(t, s.Clock.Next(), int64(5))
}

func TestClearThenLoadIsEmpty(t *testing.T) {
	s := newTestService(t)
	_, err := s.CaptureText("sk-aaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)

	require.NoError(t, s.ClearHistory())
	records, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadHistoryReportsCorruption(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, os.WriteFile(s.History.Path(), []byte("{not json"), 0o600))

	records, err := s.LoadHistory()
	assert.ErrorIs(t, err, domain.ErrCorruptStore)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestSaveAndDeleteHistory(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.SaveHistory([]domain.Record{{Timestamp: 1}, {Timestamp: 2}, {Timestamp: 3}}))

	require.NoError(t, s.DeleteHistoryItem(2))
	records, err := s.LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Timestamp)
	assert.Equal(t, int64(3), records[1].Timestamp)

	assert.ErrorIs(t, s.DeleteHistoryItem(2), domain.ErrNotFound)

	rec, err := s.HistoryItem(3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Timestamp)
	assert.Greater(t, s.Clock.Next(), int64(3))
}

// gatedHistory blocks Load until release is closed.
type gatedHistory struct {
	*history.FileStore
	loading chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedHistory) Load() ([]domain.Record, error) {
	g.once.Do(func() { close(g.loading) })
	<-g.release
	return g.FileStore.Load()
}

func TestDeleteHistoryItemKeepsConcurrentAdd(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.SaveHistory([]domain.Record{{Timestamp: 1}, {Timestamp: 2}}))
	gated := &gatedHistory{
		FileStore: history.NewFileStore(s.History.Path(), 0),
		loading:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	s.History = gated

	done := make(chan error, 1)
	go func() { done <- s.DeleteHistoryItem(1) }()

	var deleteErr error
	finished := false
	select {
	case <-gated.loading:
	case deleteErr = <-done:
		finished = true
	}
	require.NoError(t, s.AddHistoryItem(domain.Record{Timestamp: 3}))
	close(gated.release)
	if !finished {
		deleteErr = <-done
	}
	require.NoError(t, deleteErr)

	records, err := history.NewFileStore(s.History.Path(), 0).Load()
	require.NoError(t, err)
	timestamps := make([]int64, 0, len(records))
	for _, r := range records {
		timestamps = append(timestamps, r.Timestamp)
	}
	assert.Equal(t, []int64{2, 3}, timestamps)
}

func TestConcurrentHistoryDeletesAndCaptures(t *testing.T) {
	s := newTestService(t)
	seed := make([]domain.Record, 0, 20)
	for ts := int64(1); ts <= 20; ts++ {
		seed = append(seed, domain.Record{Timestamp: ts})
	}
	require.NoError(t, s.SaveHistory(seed))

	var wg sync.WaitGroup
	for ts := int64(1); ts <= 20; ts++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.DeleteHistoryItem(ts))
		}()
		go func() {
			defer wg.Done()
			_, err := s.CaptureText("sk-aaaaaaaaaaaaaaaaaaaaaaaa")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.LoadHistory()
	require.NoError(t, err)
	require.Len(t, records, 20)
	for _, r := range records {
		assert.Greater(t, r.Timestamp, int64(20))
	}
}

func TestCaptureImageMergesModels(t *testing.T) {
	s := newTestService(t)
	s.OCR = &stubExtractor{models: []string{"gpt-4o", "gpt-4o-mini"}}

	rec, err := s.CaptureImage(context.Background(), "https://api.openai.com/v1", []string{"shot.png"}, "system")
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, rec.Models)
	assert.Equal(t, "https://api.openai.com/v1", rec.BaseURL)
	assert.NotZero(t, rec.Timestamp)
}

func TestCaptureImageFailureDoesNotWriteHistory(t *testing.T) {
	s := newTestService(t)
	s.OCR = &stubExtractor{err: &domain.OCRError{Kind: domain.OCRNoText}}

	_, err := s.CaptureImage(context.Background(), "", []string{"shot.png"}, "system")
	assert.True(t, domain.IsOCRKind(err, domain.OCRNoText))

	records, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOCRDoesNotBlockHistory(t *testing.T) {
	s := newTestService(t)
	stub := &stubExtractor{models: []string{"gpt-4o"}, release: make(chan struct{}), started: make(chan struct{})}
	s.OCR = stub

	done := make(chan error, 1)
	go func() {
		_, err := s.ExtractModels(context.Background(), "shot.png", "system")
		done <- err
	}()
	<-stub.started

	_, err := s.CaptureText("sk-aaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, err)
	records, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Len(t, records, 1)

	close(stub.release)
	assert.NoError(t, <-done)
}

func TestExtractModelsWithoutAdapter(t *testing.T) {
	s := newTestService(t)
	s.OCR = nil
	_, err := s.ExtractModels(context.Background(), "x.png", "system")
	assert.True(t, domain.IsOCRKind(err, domain.OCRUnavailable))
}

func TestTemplates(t *testing.T) {
	s := newTestService(t)

	tpl := s.GeneralizeTemplate("API_KEY=sk-aaaaaaaaaaaaaaaaaaaaaaaa")
	assert.Equal(t, "API_KEY={{api_key}}", tpl)

	require.NoError(t, s.AddTemplate(domain.CustomTemplate{Name: " shell ", Content: tpl}))
	require.NoError(t, s.AddTemplate(domain.CustomTemplate{Name: "json", Content: `{"k":"{{api_key}}"}`}))
	require.NoError(t, s.AddTemplate(domain.CustomTemplate{Name: "shell", Content: "export " + tpl}))
	assert.Error(t, s.AddTemplate(domain.CustomTemplate{Name: "  "}))

	list, err := s.LoadTemplates()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "export API_KEY={{api_key}}", list[0].Content)

	got, err := s.Template("shell")
	require.NoError(t, err)
	out, err := s.FormatOutput(FormatRequest{APIKey: "X", FormatType: "custom", CustomTemplate: got.Content})
	require.NoError(t, err)
	assert.Equal(t, "export API_KEY=X", out)

	require.NoError(t, s.DeleteTemplate("json"))
	assert.ErrorIs(t, s.DeleteTemplate("json"), domain.ErrNotFound)
	_, err = s.Template("json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SaveTemplates(nil))
	list, err = s.LoadTemplates()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConcurrentTemplateUpdates(t *testing.T) {
	s := newTestService(t)
	require.NoError(t, s.SaveTemplates([]domain.CustomTemplate{{Name: "old-0"}, {Name: "old-1"}, {Name: "old-2"}}))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.DeleteTemplate(fmt.Sprintf("old-%d", i)))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AddTemplate(domain.CustomTemplate{Name: fmt.Sprintf("new-%d", i)}))
		}()
	}
	wg.Wait()

	list, err := s.LoadTemplates()
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, tpl := range list {
		names = append(names, tpl.Name)
	}
	assert.ElementsMatch(t, []string{"new-0", "new-1", "new-2"}, names)
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (r *recordingLogger) Debug(string, map[string]interface{})        {}
func (r *recordingLogger) Info(string, map[string]interface{})         {}
func (r *recordingLogger) Error(string, error, map[string]interface{}) {}

func (r *recordingLogger) Warn(msg string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}

func TestTemplateUpdatesRecoverCorruptStore(t *testing.T) {
	s := newTestService(t)
	log := &recordingLogger{}
	s.Logger = log
	require.NoError(t, os.WriteFile(s.Templates.Path(), []byte("{not json"), 0o600))

	require.NoError(t, s.AddTemplate(domain.CustomTemplate{Name: "env", Content: "KEY={{api_key}}"}))
	require.NotEmpty(t, log.warns)
	assert.Contains(t, log.warns[0], "corrupt")
	assert.FileExists(t, s.Templates.Path()+domain.CorruptSuffix)

	list, err := s.LoadTemplates()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "env", list[0].Name)

	// nothing to delete in a corrupt store; the document is left for inspection
	require.NoError(t, os.WriteFile(s.Templates.Path(), []byte("{not json"), 0o600))
	assert.ErrorIs(t, s.DeleteTemplate("env"), domain.ErrNotFound)
	_, err = s.LoadTemplates()
	assert.ErrorIs(t, err, domain.ErrCorruptStore)
}

func TestServiceDependencies(t *testing.T) {
	s := &Service{}
	_, err := s.LoadHistory()
	assert.Error(t, err)
	assert.Error(t, s.ClearHistory())
}

func TestClock(t *testing.T) {
	c := NewClock()
	frozen := time.UnixMilli(1000)
	c.now = func() time.Time { return frozen }

	assert.Equal(t, int64(1000), c.Next())
	assert.Equal(t, int64(1001), c.Next())
	c.Observe(5000)
	assert.Equal(t, int64(5001), c.Next())
	c.Observe(10)
	assert.Equal(t, int64(5002), c.Next())
}
