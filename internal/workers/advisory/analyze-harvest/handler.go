// internal/workers/advisory/analyze-harvest/handler.go
package analyzeharvest

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/advisor/engine"
	"agrichain/internal/common/camunda"
	"agrichain/internal/common/errors"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/common/validation"
	"agrichain/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "analyze-harvest"
)

// Analyzer runs one analysis. *engine.Engine satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// JobRecorder receives job outcomes for the OpenTelemetry meter.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, d time.Duration, status string)
}

type Handler struct {
	config        *Config
	analyzer      Analyzer
	recorder      JobRecorder
	errorHandler  *errors.ErrorHandler
	completeRetry *camunda.RetryConfig
	logger        logger.Logger
}

func NewHandler(config *Config, analyzer Analyzer, recorder JobRecorder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:        config,
		analyzer:      analyzer,
		recorder:      recorder,
		errorHandler:  errors.NewErrorHandler(log),
		completeRetry: camunda.DefaultRetryConfig,
		logger:        log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job.Variables)
	if err != nil {
		code := errors.Normalize(err).Code
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
		h.record(ctx, start, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job.Key, output, h.completeRetry); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.record(ctx, start, "failed")
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.record(ctx, start, "completed")
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"requestId":  output.RequestID,
		"bestMarket": output.BestMarket,
	})
}

// process validates the raw job variables and runs the analysis.
func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	input, err := parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.execute(ctx, input)
}

func parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewInvalidRequestError("parse input: " + err.Error())
	}

	// Enumerations are matched case-insensitively, like the HTTP API.
	for _, key := range []string{"cropType", "state", "district", "harvestStage", "storageType"} {
		if s, ok := raw[key].(string); ok {
			raw[key] = catalog.NormalizeKey(s)
		}
	}
	result, err := validation.Validate(catalog.RequestSchema(), raw)
	if err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidRequestError(strings.Join(result.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidRequestError("parse input: " + err.Error())
	}
	input.AnalysisRequest = engine.Normalize(input.AnalysisRequest)
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	result, err := h.analyzer.Analyze(ctx, input.AnalysisRequest)
	if err != nil {
		if errors.CodeOf(err) == "" {
			return nil, errors.NewAnalysisFailedError(err)
		}
		return nil, err
	}

	out := &Output{
		RequestID:     requestID,
		BestMarket:    result.BestMarket.Name,
		NetProfit:     result.BestMarket.NetProfit,
		HarvestWindow: result.HarvestWindow.DisplayRange,
		Urgency:       string(result.HarvestWindow.Urgency),
		RiskLevel:     string(result.Spoilage.RiskLevel),
		RiskPct:       result.Spoilage.RiskPct,
		Confidence:    result.Confidence.Score,
		Result:        result,
	}
	if len(result.Actions) > 0 {
		out.TopAction = result.Actions[0].Title
	}
	return out, nil
}

func (h *Handler) record(ctx context.Context, start time.Time, status string) {
	if h.recorder == nil {
		return
	}
	h.recorder.RecordJobProcessed(ctx, status)
	h.recorder.RecordJobDuration(ctx, time.Since(start), status)
}
