// internal/api/handlers.go
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/akashia/dreambank/internal/analyzer"
	"github.com/akashia/dreambank/internal/auth"
	"github.com/akashia/dreambank/internal/config"
	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/models"
	"github.com/akashia/dreambank/internal/services"
	"github.com/akashia/dreambank/internal/utils"
)

// Handler serves the pages and the JSON API
type Handler struct {
	Config      *config.Config
	Analyzer    *services.AnalyzerService
	Submissions *services.SubmissionService
	Stats       *services.StatsService
	Export      *services.ExportService
	Admin       *auth.AdminAuth
	Feed        *FeedHub
	Limiter     *RateLimiter
	Response    *ResponseHelper

	logger  *utils.Logger
	started time.Time
}

// Choices offered by the submission form. Other values are accepted.
var (
	dreamTypeOptions = []string{"normal", "lúcido", "pesadilla", "recurrente", "premonitorio"}
	emotionOptions   = []string{"alegría", "miedo", "tristeza", "ira", "sorpresa", "paz", "confusión"}
)

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Text      string `json:"text"`
	DreamType string `json:"dream_type"`
	Emotion   string `json:"emotion"`
	Age       *int   `json:"age"`
	Region    string `json:"region"`
}

// CreateDreamRequest is the body of POST /api/dreams
type CreateDreamRequest struct {
	AnalyzeRequest
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateDreamResponse is returned by POST /api/dreams
type CreateDreamResponse struct {
	ID            string                 `json:"id"`
	Timestamp     time.Time              `json:"timestamp"`
	Analysis      *models.AnalysisResult `json:"analysis"`
	AnalysisError string                 `json:"analysis_error,omitempty"`
}

// LoginRequest is the body of POST /api/admin/login
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// dreamForm binds the HTML form
type dreamForm struct {
	Name      string `form:"name"`
	Email     string `form:"email"`
	Region    string `form:"region"`
	DreamType string `form:"dream_type"`
	Emotion   string `form:"emotion"`
	Age       string `form:"age"`
	Message   string `form:"message"`
}

func NewHandler(
	cfg *config.Config,
	analyzerService *services.AnalyzerService,
	submissionService *services.SubmissionService,
	statsService *services.StatsService,
	exportService *services.ExportService,
	admin *auth.AdminAuth,
	feed *FeedHub) *Handler {

	return &Handler{
		Config:      cfg,
		Analyzer:    analyzerService,
		Submissions: submissionService,
		Stats:       statsService,
		Export:      exportService,
		Admin:       admin,
		Feed:        feed,
		Limiter:     NewRateLimiter(cfg.RateLimitPerMinute),
		Response:    NewResponseHelper(),
		logger:      utils.GetLogger(),
		started:     time.Now(),
	}
}

// ========================================
// Pages
// ========================================

func (h *Handler) IndexPage(c *gin.Context) {
	h.renderIndex(c, http.StatusOK, dreamForm{}, "")
}

func (h *Handler) renderIndex(c *gin.Context, status int, form dreamForm, errMsg string) {
	c.HTML(status, "index.html", gin.H{
		"Title":      "Banco de Sueños",
		"Form":       form,
		"Error":      errMsg,
		"DreamTypes": dreamTypeOptions,
		"Emotions":   emotionOptions,
		"MaxLength":  h.Config.MaxTextLength,
	})
}

// SubmitForm stores a dream from the HTML form and redirects to the
// confirmation page. Invalid forms are shown again with the error.
func (h *Handler) SubmitForm(c *gin.Context) {
	var form dreamForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderIndex(c, http.StatusBadRequest, form, "No se pudo leer el formulario.")
		return
	}

	age, err := services.ParseAge(form.Age)
	if err != nil {
		h.renderIndex(c, http.StatusBadRequest, form, userMessage(err))
		return
	}

	sub, _, err := h.Submissions.Submit(c.Request.Context(), services.SubmissionRequest{
		Name:      form.Name,
		Email:     form.Email,
		Region:    form.Region,
		DreamType: form.DreamType,
		Emotion:   form.Emotion,
		Age:       age,
		Message:   form.Message,
	})
	if err != nil {
		if apperrors.IsValidationError(err) {
			h.renderIndex(c, http.StatusBadRequest, form, userMessage(err))
			return
		}
		h.renderError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/success?id="+url.QueryEscape(sub.ID))
}

func (h *Handler) SuccessPage(c *gin.Context) {
	data := gin.H{"Title": "¡Gracias!"}
	if id := c.Query("id"); id != "" {
		if view, err := h.Submissions.Get(c.Request.Context(), id); err == nil {
			data["ID"] = view.ID
			data["Analysis"] = view.Analysis
			data["AnalysisError"] = view.AnalysisError
			if view.Analysis != nil {
				data["Level"] = analyzer.LevelName(view.Analysis.DreamIntensity.Level)
				data["Label"] = analyzer.LabelName(view.Analysis.Sentiment.Label)
			}
		}
	}
	c.HTML(http.StatusOK, "success.html", data)
}

// DreamPage shows the analysis and report of one submission
func (h *Handler) DreamPage(c *gin.Context) {
	view, err := h.Submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "dream.html", newDreamPage(publicView(view), h.Analyzer.Lexicon()))
}

// SubmissionsPage lists every submission; admin only
func (h *Handler) SubmissionsPage(c *gin.Context) {
	views, err := h.Submissions.Views(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	rows := make([]submissionRow, 0, len(views))
	for i := len(views) - 1; i >= 0; i-- {
		rows = append(rows, newSubmissionRow(views[i]))
	}
	c.HTML(http.StatusOK, "submissions.html", gin.H{
		"Title": "Sueños recibidos",
		"Rows":  rows,
		"Total": len(rows),
	})
}

func (h *Handler) StatsPage(c *gin.Context) {
	stats, err := h.Stats.GetStats(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "stats.html", newStatsPage(stats))
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("page failed", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"code":  code,
			"error": err.Error(),
		})
	}
	c.HTML(status, "error.html", gin.H{
		"Title":   "Error",
		"Status":  status,
		"Message": userMessage(err),
	})
	c.Abort()
}

// userMessage is the text shown to visitors for err
func userMessage(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr.Message
		}
	case apperrors.ErrorTypeNotFound:
		return "No encontramos ese sueño."
	case apperrors.ErrorTypeTimeout:
		return "El servidor está ocupado, inténtalo de nuevo en un momento."
	}
	return "Algo salió mal. Inténtalo de nuevo más tarde."
}

// ========================================
// Exports (admin)
// ========================================

func (h *Handler) ExportCSV(c *gin.Context) {
	h.export(c, models.ExportFormatCSV, "text/csv; charset=utf-8")
}

func (h *Handler) ExportJSON(c *gin.Context) {
	h.export(c, models.ExportFormatJSON, "application/json; charset=utf-8")
}

func (h *Handler) export(c *gin.Context, format, contentType string) {
	records, err := h.Submissions.List(c.Request.Context())
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	filename := fmt.Sprintf("submissions-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	h.Response.DownloadResponse(c, filename, contentType, func(w io.Writer) error {
		return h.Export.Write(w, format, records)
	})
	h.logger.Info("export served", map[string]interface{}{
		"format": format,
		"rows":   len(records),
		"client": c.ClientIP(),
	})
}

// ========================================
// JSON API
// ========================================

// AnalyzeDream runs the pipeline without storing anything
func (h *Handler) AnalyzeDream(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if err := h.checkText(req.Text); err != nil {
		h.Response.FromError(c, err)
		return
	}

	result, err := h.Analyzer.Analyze(c.Request.Context(), models.DreamInput{
		Text: req.Text,
		Metadata: models.DreamMetadata{
			DreamType: req.DreamType,
			Emotion:   req.Emotion,
			Age:       req.Age,
			Region:    req.Region,
		},
	})
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, result)
}

func (h *Handler) checkText(text string) error {
	if text == "" {
		return apperrors.NewValidationError("text is required", nil)
	}
	if max := h.Config.MaxTextLength; max > 0 && utf8.RuneCountInString(text) > max {
		return apperrors.NewValidationError(fmt.Sprintf("text exceeds %d characters", max), nil)
	}
	return nil
}

// CreateDream analyzes and stores a dream. As with the form, a failed
// analysis still stores the submission.
func (h *Handler) CreateDream(c *gin.Context) {
	var req CreateDreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	sub, result, err := h.Submissions.Submit(c.Request.Context(), services.SubmissionRequest{
		Name:      req.Name,
		Email:     req.Email,
		Region:    req.Region,
		DreamType: req.DreamType,
		Emotion:   req.Emotion,
		Age:       req.Age,
		Message:   req.Text,
	})
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	resp := CreateDreamResponse{ID: sub.ID, Timestamp: sub.Timestamp, Analysis: result}
	if result == nil {
		resp.AnalysisError = models.NewSubmissionView(*sub).AnalysisError
	}
	h.Response.Created(c, resp, "dream stored")
}

// GetDream returns one stored submission. Name and email are only shown to
// admins.
func (h *Handler) GetDream(c *gin.Context) {
	view, err := h.Submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	if adminCredential(c, h.Admin) != nil {
		view = publicView(view)
	}
	h.Response.Success(c, view)
}

// ListSubmissions returns every stored submission; admin only
func (h *Handler) ListSubmissions(c *gin.Context) {
	views, err := h.Submissions.Views(c.Request.Context())
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, gin.H{
		"submissions": views,
		"total":       len(views),
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.Stats.GetStats(c.Request.Context())
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, stats)
}

// GetLexicon lists the names the analysis reports on
func (h *Handler) GetLexicon(c *gin.Context) {
	lex := h.Analyzer.Lexicon()
	h.Response.Success(c, gin.H{
		"categories":      lex.CategoryNames(),
		"patterns":        lex.PatternNames(),
		"emotion_groups":  lex.EmotionGroupNames(),
		"min_text_length": h.Analyzer.Analyzer().MinTextLength(),
		"max_text_length": h.Config.MaxTextLength,
	})
}

// AdminLogin trades the admin password for a bearer token
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "password is required")
		return
	}

	token, expires, err := h.Admin.Login(req.Password)
	if err != nil {
		h.logger.Warn("admin login rejected", map[string]interface{}{"client": c.ClientIP()})
		h.Response.Forbidden(c, "invalid admin credentials")
		return
	}
	h.logger.Info("admin login", map[string]interface{}{"client": c.ClientIP()})
	h.Response.Success(c, gin.H{
		"token":      token,
		"expires_at": expires.UTC(),
	})
}

// ========================================
// Infrastructure
// ========================================

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"version":        config.Version,
		"storage_driver": h.Config.StorageDriver,
		"feed_clients":   h.Feed.ClientCount(),
		"uptime":         time.Since(h.started).Round(time.Second).String(),
		"timestamp":      time.Now().UTC(),
	})
}

func (h *Handler) Metrics(c *gin.Context) {
	utils.GetMetricsCollector().Handler().ServeHTTP(c.Writer, c.Request)
}
