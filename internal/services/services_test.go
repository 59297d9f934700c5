package services

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashia/dreambank/internal/analyzer"
	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/storage"
)

const (
	chaseDream = "Volé sobre las montañas mientras mi familia me perseguía, sentí mucho miedo pero también alegría al escapar."
	shortDream = "Soñé que volaba sobre el mar."
)

type panicTagger struct{}

func (panicTagger) Tag(tokens []string, original string) []analyzer.TaggedToken {
	panic("tagger resources missing")
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []models.FeedEvent
}

func (b *recordingBroadcaster) BroadcastFeedEvent(e models.FeedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func newAnalyzerService(t *testing.T, opts ...analyzer.Option) *AnalyzerService {
	t.Helper()
	a, err := analyzer.NewDefault(opts...)
	require.NoError(t, err)
	return NewAnalyzerService(a, 2)
}

func newCSVStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewCSVStore(filepath.Join(t.TempDir(), "submissions.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAnalyzerServiceAnalyze(t *testing.T) {
	svc := newAnalyzerService(t)
	ctx := context.Background()

	result, err := svc.Analyze(ctx, models.DreamInput{Text: chaseDream})
	require.NoError(t, err)
	assert.True(t, result.Patterns["flying"].Found)
	assert.True(t, result.Patterns["being-chased"].Found)

	again, err := svc.Analyze(ctx, models.DreamInput{Text: chaseDream})
	require.NoError(t, err)
	assert.Same(t, result, again, "identical input is served from the cache")

	other, err := svc.Analyze(ctx, models.DreamInput{Text: chaseDream, Metadata: models.DreamMetadata{Region: "Lima"}})
	require.NoError(t, err)
	assert.NotSame(t, result, other)
	assert.Equal(t, "Lima", other.Metadata.Region)
}

func TestAnalyzerServiceErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newAnalyzerService(t).Analyze(ctx, models.DreamInput{Text: "corto"})
	assert.True(t, apperrors.IsInputTooShort(err))

	_, err = newAnalyzerService(t, analyzer.WithTagger(panicTagger{})).Analyze(ctx, models.DreamInput{Text: chaseDream})
	require.Error(t, err)
	assert.True(t, apperrors.IsAnalysisFailure(err))
	assert.Contains(t, err.Error(), AnalysisFailedMessage)
}

func TestAnalyzerServiceHonoursCancelledContext(t *testing.T) {
	a, err := analyzer.NewDefault()
	require.NoError(t, err)
	svc := NewAnalyzerService(a, 1)
	svc.semaphore <- struct{}{}
	defer func() { <-svc.semaphore }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = svc.Analyze(ctx, models.DreamInput{Text: chaseDream})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))
}

func TestAnalyzerServiceSharedRunOutlivesImpatientCaller(t *testing.T) {
	a, err := analyzer.NewDefault()
	require.NoError(t, err)
	svc := NewAnalyzerService(a, 1)
	svc.semaphore <- struct{}{}

	submissions := NewSubmissionService(svc, newCSVStore(t), 5000)
	type outcome struct {
		sub    *models.Submission
		result *models.AnalysisResult
		err    error
	}
	patient := make(chan outcome, 1)
	go func() {
		sub, result, err := submissions.Submit(context.Background(), SubmissionRequest{Name: "Ana", Message: chaseDream})
		patient <- outcome{sub, result, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = svc.Analyze(ctx, models.DreamInput{Text: chaseDream})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout))

	<-svc.semaphore
	select {
	case got := <-patient:
		require.NoError(t, got.err)
		require.NotNil(t, got.result)
		view, err := submissions.Get(context.Background(), got.sub.ID)
		require.NoError(t, err)
		assert.NotNil(t, view.Analysis)
		assert.Empty(t, view.AnalysisError)
	case <-time.After(5 * time.Second):
		t.Fatal("submission never finished")
	}
}

func TestAnalyzerServiceMarshal(t *testing.T) {
	svc := newAnalyzerService(t)

	raw, err := svc.Marshal(nil, apperrors.NewInputTooShortError(analyzer.ErrTextTooShort))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"text too short"}`, raw)

	raw, err = svc.Marshal(nil, apperrors.NewAnalysisFailureError(AnalysisFailedMessage, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"analysis failed"}`, raw)

	result, err := svc.Analyze(context.Background(), models.DreamInput{Text: chaseDream})
	require.NoError(t, err)
	raw, err = svc.Marshal(result, nil)
	require.NoError(t, err)
	stored, err := models.ParseStoredAnalysis(raw)
	require.NoError(t, err)
	assert.True(t, stored.Available())
}

func TestSubmitStoresAnalysisAndBroadcasts(t *testing.T) {
	store := newCSVStore(t)
	svc := NewSubmissionService(newAnalyzerService(t), store, 5000)
	feed := &recordingBroadcaster{}
	svc.SetBroadcaster(feed)

	age := 29
	sub, result, err := svc.Submit(context.Background(), SubmissionRequest{
		Name:      "  Alice ",
		Email:     "a@b.c",
		Region:    "Lima",
		DreamType: "pesadilla",
		Age:       &age,
		Message:   chaseDream,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Alice", sub.Name)
	assert.NotEmpty(t, sub.ID)

	view, err := svc.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Analysis)
	assert.Equal(t, result.DreamIntensity, view.Analysis.DreamIntensity)
	assert.Equal(t, 29, *view.Age)

	require.Len(t, feed.events, 1)
	event := feed.events[0]
	assert.Equal(t, EventDreamAnalyzed, event.Type)
	assert.Equal(t, sub.ID, event.ID)
	assert.Equal(t, []string{"flying", "being-chased"}, event.Patterns)
	assert.Equal(t, result.Sentiment.Label, event.SentimentLabel)
}

func TestSubmitKeepsShortDreamsWithErrorMarker(t *testing.T) {
	store := newCSVStore(t)
	svc := NewSubmissionService(newAnalyzerService(t), store, 5000)
	feed := &recordingBroadcaster{}
	svc.SetBroadcaster(feed)

	sub, result, err := svc.Submit(context.Background(), SubmissionRequest{Name: "Alice", Message: "Sueño"})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.JSONEq(t, `{"error":"text too short"}`, sub.RawAnalysis)

	views, err := svc.Views(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Analysis)
	assert.Equal(t, "text too short", views[0].AnalysisError)

	require.Len(t, feed.events, 1)
	assert.Equal(t, EventDreamUnanalyzed, feed.events[0].Type)
	assert.Empty(t, feed.events[0].Patterns)
}

func TestSubmitValidation(t *testing.T) {
	svc := NewSubmissionService(newAnalyzerService(t), newCSVStore(t), 40)
	tooOld, negative := 121, -1

	cases := map[string]SubmissionRequest{
		"empty message": {Message: "   "},
		"too long":      {Message: strings.Repeat("sueño ", 10)},
		"bad email":     {Message: shortDream, Email: "not-an-email"},
		"age too high":  {Message: shortDream, Age: &tooOld},
		"negative age":  {Message: shortDream, Age: &negative},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Submit(context.Background(), req)
			assert.True(t, apperrors.IsValidationError(err), err)
		})
	}

	rows, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseAge(t *testing.T) {
	age, err := ParseAge(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, *age)

	age, err = ParseAge("")
	require.NoError(t, err)
	assert.Nil(t, age)

	_, err = ParseAge("cuarenta")
	assert.True(t, apperrors.IsValidationError(err))
}

func analyzedRecord(t *testing.T, svc *AnalyzerService, id, text, region string) models.Submission {
	t.Helper()
	result, err := svc.Analyze(context.Background(), models.DreamInput{Text: text})
	require.NoError(t, err)
	raw, err := svc.Marshal(result, nil)
	require.NoError(t, err)
	return models.Submission{ID: id, Region: region, DreamType: "lúcido", Message: text, RawAnalysis: raw}
}

func storedResult(t *testing.T, rec models.Submission) *models.AnalysisResult {
	t.Helper()
	stored, err := models.ParseStoredAnalysis(rec.RawAnalysis)
	require.NoError(t, err)
	require.True(t, stored.Available())
	return stored.Result
}

func TestStatsCompute(t *testing.T) {
	asvc := newAnalyzerService(t)
	chase := analyzedRecord(t, asvc, "a", chaseDream, "Lima")
	quiet := analyzedRecord(t, asvc, "b", "Caminaba por una calle tranquila y miraba las casas del barrio.", "")

	records := []models.Submission{
		chase,
		quiet,
		{ID: "c", Region: "Lima", RawAnalysis: `{"error":"text too short"}`},
		{ID: "d", Region: "Cusco", RawAnalysis: `{"sentiment": 3`},
		{ID: "e"},
	}

	stats := NewStatsService(asvc.Lexicon(), newCSVStore(t)).Compute(records)

	assert.Equal(t, 5, stats.TotalSubmissions)
	assert.Equal(t, 2, stats.Analyzed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Malformed)

	assert.Equal(t, 2, stats.ByRegion.Get("Lima"))
	assert.Equal(t, 2, stats.ByRegion.Get(models.UnspecifiedBucket))
	assert.Equal(t, 1, stats.ByRegion.Get("Cusco"))
	assert.Equal(t, "Lima", stats.ByRegion[0].Term)
	assert.Equal(t, 3, stats.ByDreamType.Get(models.UnspecifiedBucket))

	assert.Equal(t, models.SentimentLabels, stats.SentimentDistribution.Terms())
	assert.Equal(t, models.IntensityLevels, stats.LevelDistribution.Terms())
	assert.Equal(t, asvc.Lexicon().PatternNames(), stats.PatternFrequency.Terms())
	assert.Equal(t, 1, stats.PatternFrequency.Get("flying"))
	assert.Equal(t, 0, stats.PatternFrequency.Get("teeth"))

	total := 0
	for _, tc := range stats.SentimentDistribution {
		total += tc.Count
	}
	assert.Equal(t, 2, total)

	expected := (storedResult(t, chase).DreamIntensity.Score + storedResult(t, quiet).DreamIntensity.Score) / 2
	assert.InDelta(t, expected, stats.AverageIntensity, 0.05)
	assert.LessOrEqual(t, len(stats.TopThemes), MaxThemes)
	assert.NotEmpty(t, stats.TopThemes)
}

func TestStatsEmpty(t *testing.T) {
	asvc := newAnalyzerService(t)
	svc := NewStatsService(asvc.Lexicon(), newCSVStore(t))

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSubmissions)
	assert.Zero(t, stats.AverageIntensity)
	assert.Len(t, stats.SentimentDistribution, 3)
	assert.Len(t, stats.PatternFrequency, 8)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"top_themes":{}`)
}

// memoryStore is a Store whose rows can be rewritten in place
type memoryStore struct {
	mu   sync.Mutex
	rows []models.Submission
}

func (m *memoryStore) Append(_ context.Context, sub models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, sub)
	return nil
}

func (m *memoryStore) List(context.Context) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Submission(nil), m.rows...), nil
}

func (m *memoryStore) Get(_ context.Context, id string) (models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.rows {
		if rec.ID == id {
			return rec, nil
		}
	}
	return models.Submission{}, apperrors.NewNotFoundError("submission "+id+" not found", nil)
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) replace(i int, sub models.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[i] = sub
}

func TestStatsRecomputedWhenRowsChangeInPlace(t *testing.T) {
	asvc := newAnalyzerService(t)
	store := &memoryStore{}
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, analyzedRecord(t, asvc, "a", chaseDream, "Lima")))

	svc := NewStatsService(asvc.Lexicon(), store)
	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Analyzed)
	assert.Zero(t, stats.Failed)

	cached, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.GeneratedAt, cached.GeneratedAt)

	store.replace(0, models.Submission{ID: "a", Region: "Cusco", RawAnalysis: `{"error":"text too short"}`})

	stats, err = svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSubmissions)
	assert.Zero(t, stats.Analyzed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.ByRegion.Get("Cusco"))
	assert.Zero(t, stats.ByRegion.Get("Lima"))
}

func TestExportWriters(t *testing.T) {
	asvc := newAnalyzerService(t)
	rec := analyzedRecord(t, asvc, "a", chaseDream, "Lima")
	rec.Name = "Alice"
	svc := NewExportService(newCSVStore(t), t.TempDir())

	var csvBuf bytes.Buffer
	require.NoError(t, svc.Write(&csvBuf, "CSV", []models.Submission{rec}))
	assert.True(t, strings.HasPrefix(csvBuf.String(), strings.Join(storage.Columns, ",")))
	assert.Contains(t, csvBuf.String(), "Alice")

	var jsonBuf bytes.Buffer
	require.NoError(t, svc.Write(&jsonBuf, models.ExportFormatJSON, []models.Submission{rec}))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Alice", decoded[0]["name"])
	assert.NotNil(t, decoded[0]["analysis"])

	err := svc.Write(&jsonBuf, "xml", nil)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestExportSnapshot(t *testing.T) {
	store := newCSVStore(t)
	dataDir := t.TempDir()
	svc := NewExportService(store, dataDir)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	first := models.Submission{ID: "1", Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Message: "uno"}
	second := models.Submission{ID: "2", Timestamp: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Message: "dos"}
	require.NoError(t, store.Append(context.Background(), first))
	require.NoError(t, store.Append(context.Background(), second))

	result, err := svc.Snapshot(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "exports", "submissions-20240506-070809.csv"), result.FilePath)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, first.Timestamp, result.DateRange.StartDate)
	assert.Equal(t, second.Timestamp, result.DateRange.EndDate)

	info, err := os.Stat(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), result.FileSize)
}

func TestExportSchedule(t *testing.T) {
	svc := NewExportService(newCSVStore(t), t.TempDir())

	require.NoError(t, svc.StartSchedule(""))
	err := svc.StartSchedule("every now and then")
	assert.True(t, apperrors.IsValidationError(err))

	require.NoError(t, svc.StartSchedule("@every 1h"))
	assert.True(t, apperrors.IsConflictError(svc.StartSchedule("@every 1h")))
	svc.Stop()
	svc.Stop()
}
