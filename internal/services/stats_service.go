// internal/services/stats_service.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/storage"
	"github.com/akashia/dreambank/internal/utils"
)

// MaxThemes caps the corpus-wide theme table
const MaxThemes = 10

// StatsService folds stored submissions into DreamStats. The last result
// is reused while the stored rows hash to the same fingerprint.
type StatsService struct {
	lexicon *analyzer.Lexicon
	store   storage.Store
	logger  *utils.Logger

	mutex       sync.Mutex
	cachedStats *models.DreamStats
	cachedKey   string
	now         func() time.Time
}

func NewStatsService(lexicon *analyzer.Lexicon, store storage.Store) *StatsService {
	return &StatsService{
		lexicon: lexicon,
		store:   store,
		logger:  utils.GetLogger(),
		now:     time.Now,
	}
}

// GetStats aggregates the current contents of the store
func (s *StatsService) GetStats(ctx context.Context) (*models.DreamStats, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	key := fingerprint(rows)
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.cachedStats != nil && s.cachedKey == key {
		return s.createStatsCopy(), nil
	}

	s.cachedStats = s.Compute(rows)
	s.cachedKey = key
	return s.createStatsCopy(), nil
}

// fingerprint hashes every stored column of every row
func fingerprint(rows []models.Submission) string {
	h := sha256.New()
	for _, rec := range rows {
		for _, field := range storage.Record(rec) {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Compute folds records into statistics. Records whose stored analysis is
// malformed are counted and otherwise skipped.
func (s *StatsService) Compute(records []models.Submission) *models.DreamStats {
	byType := newTally()
	byEmotion := newTally()
	byRegion := newTally()
	sentiments := newTally(models.SentimentLabels...)
	levels := newTally(models.IntensityLevels...)
	patterns := newTally(s.lexicon.PatternNames()...)
	themes := newTally()

	stats := &models.DreamStats{
		TotalSubmissions: len(records),
		GeneratedAt:      s.now().UTC(),
	}

	var intensitySum float64
	for _, rec := range records {
		byType.add(bucket(rec.DreamType), 1)
		byEmotion.add(bucket(rec.Emotion), 1)
		byRegion.add(bucket(rec.Region), 1)

		stored, err := models.ParseStoredAnalysis(rec.RawAnalysis)
		if err != nil {
			stats.Malformed++
			s.logger.Debug("skipping malformed stored analysis", map[string]interface{}{
				"id":    rec.ID,
				"error": err.Error(),
			})
			continue
		}
		if stored.Failure != nil {
			stats.Failed++
			continue
		}
		if !stored.Available() {
			continue
		}

		result := stored.Result
		stats.Analyzed++
		intensitySum += result.DreamIntensity.Score
		sentiments.add(result.Sentiment.Label, 1)
		levels.add(result.DreamIntensity.Level, 1)
		for _, name := range result.FoundPatterns(s.lexicon.PatternNames()) {
			patterns.add(name, 1)
		}
		for _, kw := range result.Keywords {
			themes.add(analyzer.Stem(kw.Term), kw.Count)
		}
	}

	if stats.Analyzed > 0 {
		stats.AverageIntensity = math.Round(intensitySum/float64(stats.Analyzed)*10) / 10
	}
	stats.ByDreamType = byType.ranked()
	stats.ByEmotion = byEmotion.ranked()
	stats.ByRegion = byRegion.ranked()
	stats.SentimentDistribution = sentiments.table()
	stats.LevelDistribution = levels.table()
	stats.PatternFrequency = patterns.table()
	stats.TopThemes = themes.table().Top(MaxThemes)
	return stats
}

func (s *StatsService) createStatsCopy() *models.DreamStats {
	copied := *s.cachedStats
	return &copied
}

func bucket(value string) string {
	if value == "" {
		return models.UnspecifiedBucket
	}
	return value
}

// tally counts terms keeping first-seen order; seeded terms start at zero
type tally struct {
	index map[string]int
	rows  models.Frequencies
}

func newTally(seed ...string) *tally {
	t := &tally{index: make(map[string]int, len(seed))}
	for _, term := range seed {
		t.add(term, 0)
	}
	return t
}

func (t *tally) add(term string, n int) {
	if i, ok := t.index[term]; ok {
		t.rows[i].Count += n
		return
	}
	t.index[term] = len(t.rows)
	t.rows = append(t.rows, models.TermCount{Term: term, Count: n})
}

func (t *tally) table() models.Frequencies {
	if t.rows == nil {
		return models.Frequencies{}
	}
	return append(models.Frequencies(nil), t.rows...)
}

// ranked orders by descending count, ties by first seen
func (t *tally) ranked() models.Frequencies {
	return t.table().Top(-1)
}
