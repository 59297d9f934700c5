// internal/services/analyzer_service.go
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/akashia/dreambank/internal/analyzer"
	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/utils"
)

// AnalysisFailedMessage is the generic message surfaced for AnalysisFailure
const AnalysisFailedMessage = "analysis failed"

// AnalyzerService wraps the analysis pipeline with bounded concurrency, a
// result cache, panic recovery, logging and metrics
type AnalyzerService struct {
	analyzer      *analyzer.Analyzer
	semaphore     chan struct{}
	analysisCache *AnalysisCache
	inflight      singleflight.Group
	metrics       *utils.MetricsCollector
	logger        *utils.Logger
}

// AnalysisCache keeps recent results keyed by the input hash
type AnalysisCache struct {
	cache      map[string]*CachedAnalysis
	mutex      sync.RWMutex
	expiration time.Duration
	maxEntries int
}

type CachedAnalysis struct {
	Result    *models.AnalysisResult
	Timestamp time.Time
}

// NewAnalyzerService creates the service. concurrency < 1 defaults to 4.
func NewAnalyzerService(a *analyzer.Analyzer, concurrency int) *AnalyzerService {
	if concurrency < 1 {
		concurrency = 4
	}
	return &AnalyzerService{
		analyzer:  a,
		semaphore: make(chan struct{}, concurrency),
		analysisCache: &AnalysisCache{
			cache:      make(map[string]*CachedAnalysis),
			expiration: 30 * time.Minute,
			maxEntries: 512,
		},
		metrics: utils.GetMetricsCollector(),
		logger:  utils.GetLogger(),
	}
}

func (s *AnalyzerService) Analyzer() *analyzer.Analyzer {
	return s.analyzer
}

func (s *AnalyzerService) Lexicon() *analyzer.Lexicon {
	return s.analyzer.Lexicon()
}

// Analyze runs the pipeline for one dream. Errors are AppErrors of type
// input_too_short, analysis_failure, or timeout when ctx ends before the
// result is ready. A non-nil result is always complete.
//
// Identical concurrent inputs share one run. The shared run waits for a
// slot on its own; each caller only stops waiting on its own ctx.
func (s *AnalyzerService) Analyze(ctx context.Context, in models.DreamInput) (*models.AnalysisResult, error) {
	cacheKey := s.generateCacheKey(in)
	if cached := s.checkAnalysisCache(cacheKey); cached != nil {
		s.metrics.RecordAnalysis(utils.OutcomeCached, 0)
		return cached, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrorTypeTimeout, "analysis cancelled", err)
	}

	ch := s.inflight.DoChan(cacheKey, func() (interface{}, error) {
		return s.analyzeShared(cacheKey, in)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.AnalysisResult), nil
	case <-ctx.Done():
		return nil, apperrors.NewAppError(apperrors.ErrorTypeTimeout, "analysis cancelled", ctx.Err())
	}
}

// analyzeShared is the run shared by every caller of one input. It is not
// tied to any caller's context: a finished result still lands in the cache
// after the callers have given up.
func (s *AnalyzerService) analyzeShared(cacheKey string, in models.DreamInput) (*models.AnalysisResult, error) {
	s.semaphore <- struct{}{}
	defer func() { <-s.semaphore }()

	start := time.Now()
	result, err := s.runPipeline(in)
	elapsed := time.Since(start)

	switch {
	case apperrors.IsInputTooShort(err):
		s.metrics.RecordAnalysis(utils.OutcomeInputTooShort, elapsed)
		return nil, err
	case err != nil:
		s.metrics.RecordAnalysis(utils.OutcomeFailure, elapsed)
		s.metrics.RecordError(string(apperrors.ErrorTypeAnalysisFailure), "analyzer")
		s.logger.Error("dream analysis failed", map[string]interface{}{
			"error":       err.Error(),
			"text_length": len(in.Text),
		})
		return nil, err
	}

	s.metrics.RecordAnalysis(utils.OutcomeSuccess, elapsed)
	s.metrics.RecordDream(result.DreamIntensity.Score, result.FoundPatterns(s.analyzer.Lexicon().PatternNames()))
	s.addToAnalysisCache(cacheKey, result)
	return result, nil
}

// runPipeline converts panics inside the pipeline into AnalysisFailure
func (s *AnalyzerService) runPipeline(in models.DreamInput) (result *models.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = apperrors.NewAnalysisFailureError(AnalysisFailedMessage, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err = s.analyzer.Analyze(in)
	if err != nil && !apperrors.IsInputTooShort(err) {
		return nil, apperrors.NewAnalysisFailureError(AnalysisFailedMessage, err)
	}
	return result, err
}

// Marshal renders the stored analysis field for a pipeline outcome: the
// result JSON, or the error object when err is set
func (s *AnalyzerService) Marshal(result *models.AnalysisResult, err error) (string, error) {
	var payload interface{} = result
	if err != nil || result == nil {
		payload = analyzer.ErrorObject(err)
	}
	data, mErr := json.Marshal(payload)
	if mErr != nil {
		return "", apperrors.NewProcessingError("encode analysis", mErr)
	}
	return string(data), nil
}

func (s *AnalyzerService) generateCacheKey(in models.DreamInput) string {
	meta, _ := json.Marshal(in.Metadata)
	h := sha256.New()
	h.Write([]byte(in.Text))
	h.Write([]byte{0})
	h.Write(meta)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *AnalyzerService) checkAnalysisCache(cacheKey string) *models.AnalysisResult {
	s.analysisCache.mutex.RLock()
	defer s.analysisCache.mutex.RUnlock()

	if cached, ok := s.analysisCache.cache[cacheKey]; ok {
		if time.Since(cached.Timestamp) < s.analysisCache.expiration {
			return cached.Result
		}
	}
	return nil
}

func (s *AnalyzerService) addToAnalysisCache(cacheKey string, result *models.AnalysisResult) {
	s.analysisCache.mutex.Lock()
	defer s.analysisCache.mutex.Unlock()

	now := time.Now()
	if len(s.analysisCache.cache) >= s.analysisCache.maxEntries {
		for key, cached := range s.analysisCache.cache {
			if now.Sub(cached.Timestamp) >= s.analysisCache.expiration {
				delete(s.analysisCache.cache, key)
			}
		}
		// still full: drop an arbitrary entry
		for key := range s.analysisCache.cache {
			if len(s.analysisCache.cache) < s.analysisCache.maxEntries {
				break
			}
			delete(s.analysisCache.cache, key)
		}
	}
	s.analysisCache.cache[cacheKey] = &CachedAnalysis{Result: result, Timestamp: now}
}
