package suggestresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"realty-crm/internal/common/config"
	apperrors "realty-crm/internal/common/errors"
	"realty-crm/internal/common/llm"
	"realty-crm/internal/common/logger"
	"realty-crm/internal/common/metrics"
	"realty-crm/internal/common/validation"

	"github.com/gin-gonic/gin"
)

const (
	HandlerName = config.HandlerSuggestResponse
	Route       = "/api/ai/suggest-response"
)

var ErrSynthesisPanic = errors.New("SYNTHESIS_PANIC")

// requestSchema only enforces presence and shape. An empty
// conversation_history passes; a missing or null one does not.
var requestSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["conversation_history", "last_message"],
	"properties": {
		"contact_id": {"type": ["string", "null"]},
		"conversation_history": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"role": {"type": "string"},
					"message": {"type": "string"}
				}
			}
		},
		"last_message": {"type": "string", "minLength": 1},
		"context": {
			"type": ["object", "null"],
			"properties": {
				"contact_type": {"type": ["string", "null"]},
				"lead_score": {"type": ["number", "null"]},
				"preferred_locations": {
					"type": ["array", "null"],
					"items": {"type": "string"}
				}
			}
		}
	}
}`)

type Handler struct {
	config   *Config
	provider llm.Completer
	logger   logger.Logger
	coin     func() float64
}

func NewHandler(cfg *Config, provider llm.Completer, log logger.Logger) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, errors.New("suggest-response: provider is required")
	}

	return &Handler{
		config:   cfg,
		provider: provider,
		logger: log.With(map[string]interface{}{
			"handler": HandlerName,
		}),
		coin: rand.Float64,
	}, nil
}

// Handle serves POST /api/ai/suggest-response.
func (h *Handler) Handle(c *gin.Context) {
	start := time.Now()
	status := http.StatusOK
	metrics.HandlerRequestsActive.WithLabelValues(HandlerName).Inc()
	defer func() {
		metrics.HandlerRequestsActive.WithLabelValues(HandlerName).Dec()
		metrics.HandlerRequestsTotal.WithLabelValues(HandlerName, strconv.Itoa(status)).Inc()
		metrics.HandlerRequestDuration.WithLabelValues(HandlerName).Observe(time.Since(start).Seconds())
	}()

	log := h.logger.With(map[string]interface{}{
		"requestId": c.GetString("request_id"),
	})

	req, verr := decodeRequest(c)
	if verr != nil {
		status = apperrors.HTTPStatusFor(verr.Code)
		log.Warn("rejected request", map[string]interface{}{
			"code":    verr.Code,
			"details": verr.Details,
		})
		c.JSON(status, ErrorResponse{Error: verr.Message})
		return
	}

	if req.ContactID != nil {
		log = log.With(map[string]interface{}{"contactId": *req.ContactID})
	}

	result, err := h.Execute(c.Request.Context(), req)
	if err != nil {
		stdErr := apperrors.Normalize(err)
		status = http.StatusInternalServerError
		log.Error("suggestion synthesis failed", map[string]interface{}{
			"code":     stdErr.Code,
			"category": apperrors.GetErrorCategory(stdErr.Code),
			"error":    err.Error(),
		})
		c.JSON(status, FallbackResponse())
		return
	}

	metrics.SuggestionsReturned.Observe(float64(len(result.SuggestedResponses)))
	log.Info("suggestions generated", map[string]interface{}{
		"suggestions": len(result.SuggestedResponses),
		"insights":    len(result.ContextInsights),
		"durationMs":  time.Since(start).Milliseconds(),
	})
	c.JSON(status, result)
}

func decodeRequest(c *gin.Context) (*Request, *apperrors.StandardError) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("read body: %v", err))
	}

	if vr := requestSchema.ValidateBytes(body); !vr.Valid {
		stdErr := apperrors.NewInvalidInputError(fmt.Sprintf("%v", vr.GetErrorMessages()))
		stdErr.Metadata = map[string]interface{}{"errors": vr.Errors}
		return nil, stdErr
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("decode body: %v", err))
	}
	if req.ConversationHistory == nil || req.LastMessage == nil || *req.LastMessage == "" {
		return nil, apperrors.NewInvalidInputError("conversation_history and last_message are required")
	}
	return &req, nil
}

// Execute runs one synthesis: prompt, a single logical provider call, parse.
// Panics anywhere in the pipeline come back as errors.
func (h *Handler) Execute(ctx context.Context, req *Request) (result *SynthesisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = apperrors.NewGenerationFailedError(fmt.Errorf("%w: %v", ErrSynthesisPanic, r))
		}
	}()

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	var history []ConversationTurn
	if req.ConversationHistory != nil {
		history = *req.ConversationHistory
	}
	var lastMessage string
	if req.LastMessage != nil {
		lastMessage = *req.LastMessage
	}

	prompt := BuildPrompt(history, lastMessage, req.Context)

	text, err := h.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: prompt},
			{Role: llm.RoleUser, Content: lastMessage},
		},
		Temperature: h.config.Temperature,
		MaxTokens:   h.config.MaxTokens,
	})
	if err != nil {
		if errors.Is(err, llm.ErrProviderTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewGenerationTimeoutError(err)
		}
		return nil, apperrors.NewGenerationFailedError(err)
	}
	if text == "" {
		return nil, apperrors.NewGenerationFailedError(llm.ErrEmptyCompletion)
	}

	return ParseResponse(text, h.coin), nil
}
