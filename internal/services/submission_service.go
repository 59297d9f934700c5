// internal/services/submission_service.go
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/storage"
	"github.com/akashia/dreambank/internal/utils"
)

// Feed event types
const (
	EventDreamAnalyzed   = "dream_analyzed"
	EventDreamUnanalyzed = "dream_unanalyzed"
)

const maxAge = 120

// Broadcaster receives an event for every stored submission
type Broadcaster interface {
	BroadcastFeedEvent(event models.FeedEvent)
}

// SubmissionRequest is the validated-on-submit form payload
type SubmissionRequest struct {
	Name      string
	Email     string
	Region    string
	DreamType string
	Emotion   string
	Age       *int
	Message   string
}

// Input returns the pipeline input for the request
func (r SubmissionRequest) Input() models.DreamInput {
	return models.DreamInput{
		Text: r.Message,
		Metadata: models.DreamMetadata{
			DreamType: r.DreamType,
			Emotion:   r.Emotion,
			Age:       r.Age,
			Region:    r.Region,
		},
	}
}

// SubmissionService turns a form into an analyzed, stored submission
type SubmissionService struct {
	analyzer    *AnalyzerService
	store       storage.Store
	broadcaster Broadcaster
	maxLength   int
	logger      *utils.Logger
	now         func() time.Time
}

func NewSubmissionService(analyzer *AnalyzerService, store storage.Store, maxLength int) *SubmissionService {
	return &SubmissionService{
		analyzer:  analyzer,
		store:     store,
		maxLength: maxLength,
		logger:    utils.GetLogger(),
		now:       time.Now,
	}
}

// SetBroadcaster wires the live feed; nil disables broadcasting
func (s *SubmissionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// ParseAge parses the optional age form field
func ParseAge(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	age, err := strconv.Atoi(value)
	if err != nil {
		return nil, apperrors.NewValidationError("la edad debe ser un número", err)
	}
	return &age, nil
}

// Validate trims the request and checks the form rules
func (s *SubmissionService) Validate(req *SubmissionRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Region = strings.TrimSpace(req.Region)
	req.DreamType = strings.TrimSpace(req.DreamType)
	req.Emotion = strings.TrimSpace(req.Emotion)
	req.Message = strings.TrimSpace(req.Message)

	if req.Message == "" {
		return apperrors.NewValidationError("el relato del sueño es obligatorio", nil)
	}
	if s.maxLength > 0 && utf8.RuneCountInString(req.Message) > s.maxLength {
		return apperrors.NewValidationError(fmt.Sprintf("el relato supera los %d caracteres", s.maxLength), nil)
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return apperrors.NewValidationError("el correo electrónico no es válido", err)
		}
	}
	if req.Age != nil && (*req.Age < 0 || *req.Age > maxAge) {
		return apperrors.NewValidationError(fmt.Sprintf("la edad debe estar entre 0 y %d", maxAge), nil)
	}
	return nil
}

// Submit validates, analyzes and stores a dream. Analysis errors do not
// reject the submission: the error object is stored instead and the
// returned result is nil.
func (s *SubmissionService) Submit(ctx context.Context, req SubmissionRequest) (*models.Submission, *models.AnalysisResult, error) {
	if err := s.Validate(&req); err != nil {
		return nil, nil, err
	}

	result, analysisErr := s.analyzer.Analyze(ctx, req.Input())
	raw, err := s.analyzer.Marshal(result, analysisErr)
	if err != nil {
		return nil, nil, err
	}

	sub := &models.Submission{
		ID:          uuid.NewString(),
		Timestamp:   s.now().UTC(),
		Name:        req.Name,
		Email:       req.Email,
		Region:      req.Region,
		DreamType:   req.DreamType,
		Emotion:     req.Emotion,
		Age:         req.Age,
		Message:     req.Message,
		RawAnalysis: raw,
	}
	if analysisErr != nil {
		s.logger.Warn("storing submission without analysis", map[string]interface{}{
			"id":    sub.ID,
			"error": analysisErr.Error(),
		})
		result = nil
	}

	if err := s.store.Append(ctx, *sub); err != nil {
		return nil, nil, apperrors.WrapError(err, "store submission", apperrors.ErrorTypeStorage)
	}
	s.logger.Info("submission stored", map[string]interface{}{
		"id":       sub.ID,
		"analyzed": result != nil,
	})

	if s.broadcaster != nil {
		s.broadcaster.BroadcastFeedEvent(s.feedEvent(sub, result))
	}
	return sub, result, nil
}

func (s *SubmissionService) feedEvent(sub *models.Submission, result *models.AnalysisResult) models.FeedEvent {
	event := models.FeedEvent{
		Type:      EventDreamUnanalyzed,
		ID:        sub.ID,
		Timestamp: sub.Timestamp,
		Patterns:  []string{},
	}
	if result != nil {
		event.Type = EventDreamAnalyzed
		event.Intensity = result.DreamIntensity.Score
		event.Level = result.DreamIntensity.Level
		event.SentimentLabel = result.Sentiment.Label
		event.Patterns = result.FoundPatterns(s.analyzer.Lexicon().PatternNames())
	}
	return event
}

// List returns every stored submission
func (s *SubmissionService) List(ctx context.Context) ([]models.Submission, error) {
	return s.store.List(ctx)
}

// Views returns every stored submission with its analysis decoded
func (s *SubmissionService) Views(ctx context.Context) ([]models.SubmissionView, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.SubmissionView, 0, len(rows))
	for _, row := range rows {
		views = append(views, models.NewSubmissionView(row))
	}
	return views, nil
}

// Get returns one submission with its analysis decoded
func (s *SubmissionService) Get(ctx context.Context, id string) (models.SubmissionView, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return models.SubmissionView{}, err
	}
	return models.NewSubmissionView(row), nil
}
