// internal/models/submission.go
package models

import (
	"bytes"
	"encoding/json"
	"time"

	apperrors "github.com/akashia/dreambank/internal/errors"
)

// UnspecifiedBucket is used for empty metadata values in aggregations
const UnspecifiedBucket = "sin especificar"

// Submission is one stored row: the form fields plus the serialized analysis
type Submission struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Region      string    `json:"region"`
	DreamType   string    `json:"dream_type"`
	Emotion     string    `json:"emotion"`
	Age         *int      `json:"age,omitempty"`
	Message     string    `json:"message"`
	RawAnalysis string    `json:"-"`
}

// Metadata returns the analysis metadata carried by the submission
func (s *Submission) Metadata() DreamMetadata {
	return DreamMetadata{
		DreamType: s.DreamType,
		Emotion:   s.Emotion,
		Age:       s.Age,
		Region:    s.Region,
	}
}

// StoredAnalysis is the decoded form of Submission.RawAnalysis. At most one
// of Result and Failure is set; both nil means no analysis is available.
type StoredAnalysis struct {
	Result  *AnalysisResult
	Failure *AnalysisError
}

func (s StoredAnalysis) Available() bool {
	return s.Result != nil
}

// ParseStoredAnalysis decodes a stored analysis field. An empty field is not
// an error. Anything that does not parse into a complete result or an error
// object yields a malformed-analysis error.
func ParseStoredAnalysis(raw string) (StoredAnalysis, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return StoredAnalysis{}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return StoredAnalysis{}, apperrors.NewMalformedAnalysisError("stored analysis is not a JSON object", err)
	}

	if msg, ok := probe["error"]; ok && len(probe) == 1 {
		var failure AnalysisError
		if err := json.Unmarshal(msg, &failure.Error); err != nil {
			return StoredAnalysis{}, apperrors.NewMalformedAnalysisError("stored analysis error is not a string", err)
		}
		return StoredAnalysis{Failure: &failure}, nil
	}

	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return StoredAnalysis{}, apperrors.NewMalformedAnalysisError("stored analysis does not match the result schema", err)
	}
	if err := validateResult(&result); err != nil {
		return StoredAnalysis{}, err
	}
	return StoredAnalysis{Result: &result}, nil
}

func validateResult(r *AnalysisResult) error {
	if r.Patterns == nil || r.Semantic == nil || r.Emotions == nil {
		return apperrors.NewMalformedAnalysisError("stored analysis is missing sections", nil)
	}
	if !contains(SentimentLabels, r.Sentiment.Label) {
		return apperrors.NewMalformedAnalysisError("stored analysis has an unknown sentiment label", nil)
	}
	if !contains(IntensityLevels, r.DreamIntensity.Level) {
		return apperrors.NewMalformedAnalysisError("stored analysis has an unknown intensity level", nil)
	}
	if r.DreamIntensity.Score < 0 || r.DreamIntensity.Score > 100 {
		return apperrors.NewMalformedAnalysisError("stored analysis intensity is out of range", nil)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// SubmissionView is a submission with its analysis decoded, as served by the API
type SubmissionView struct {
	Submission
	Analysis      *AnalysisResult `json:"analysis"`
	AnalysisError string          `json:"analysis_error,omitempty"`
}

// NewSubmissionView decodes the stored analysis of s. A malformed analysis
// leaves Analysis nil.
func NewSubmissionView(s Submission) SubmissionView {
	view := SubmissionView{Submission: s}
	stored, err := ParseStoredAnalysis(s.RawAnalysis)
	if err != nil {
		return view
	}
	view.Analysis = stored.Result
	if stored.Failure != nil {
		view.AnalysisError = stored.Failure.Error
	}
	return view
}
