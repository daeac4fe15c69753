// internal/workers/advisory/analyze-harvest/handler_test.go
package analyzeharvest

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"agrichain/internal/advisor/engine"
	"agrichain/internal/common/config"
	"agrichain/internal/common/errors"
	"agrichain/internal/common/logger"
	"agrichain/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*models.AnalysisResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

// ==========================
// Test Helper Functions
// ==========================

const validVariables = `{
	"requestId": "req-001",
	"cropType": "Tomato",
	"state": "maharashtra",
	"district": "Nashik",
	"harvestStage": "15days",
	"storageType": "none",
	"landSize": 2.5,
	"farmerPhone": "+919800000000"
}`

func createTestHandler(t *testing.T, analyzer Analyzer) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, analyzer, nil, logger.NewTestLogger(t))
}

func sampleResult() *models.AnalysisResult {
	best := models.MarketCandidate{Name: "Nashik", NetProfit: 50870, IsBest: true}
	return &models.AnalysisResult{
		BestMarket:    best,
		Markets:       []models.MarketCandidate{best},
		HarvestWindow: models.HarvestWindow{DisplayRange: "Jan 17–20", Urgency: models.UrgencyPlanAhead},
		Spoilage:      models.SpoilageAssessment{RiskPct: 73.1, RiskLevel: models.RiskHigh},
		Actions:       []models.PreservationAction{{Rank: 1, Title: "Pre-cooling at nearest cold store (4 hrs)"}},
		Confidence:    models.Confidence{Score: 72},
	}
}

// ==========================
// Input Parsing
// ==========================

func TestParseInput_Valid(t *testing.T) {
	input, err := parseInput(validVariables)
	require.NoError(t, err)

	assert.Equal(t, "req-001", input.RequestID)
	assert.Equal(t, "tomato", input.CropType)
	assert.Equal(t, "nashik", input.District)
	assert.Equal(t, models.StageFifteenDays, input.HarvestStage)
	assert.Equal(t, 2.5, input.LandSize)
}

func TestParseInput_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		contains  string
	}{
		{"malformed json", `{"cropType": `, "parse input"},
		{"missing land size", `{"cropType":"tomato","state":"maharashtra","district":"nashik","harvestStage":"ready","storageType":"none"}`, "landSize"},
		{"zero land size", `{"cropType":"tomato","state":"maharashtra","district":"nashik","harvestStage":"ready","storageType":"none","landSize":0}`, "landSize"},
		{"unknown crop", `{"cropType":"mango","state":"maharashtra","district":"nashik","harvestStage":"ready","storageType":"none","landSize":1}`, "cropType"},
		{"unknown stage", `{"cropType":"tomato","state":"maharashtra","district":"nashik","harvestStage":"30days","storageType":"none","landSize":1}`, "harvestStage"},
		{"unknown storage", `{"cropType":"tomato","state":"maharashtra","district":"nashik","harvestStage":"ready","storageType":"silo","landSize":1}`, "storageType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseInput(tt.variables)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	analyzer := new(MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.MatchedBy(func(req models.AnalysisRequest) bool {
		return req.CropType == "tomato" && req.District == "nashik"
	})).Return(sampleResult(), nil)

	h := createTestHandler(t, analyzer)
	out, err := h.process(context.Background(), validVariables)
	require.NoError(t, err)

	assert.Equal(t, "req-001", out.RequestID)
	assert.Equal(t, "Nashik", out.BestMarket)
	assert.Equal(t, 50870.0, out.NetProfit)
	assert.Equal(t, "Jan 17–20", out.HarvestWindow)
	assert.Equal(t, "plan_ahead", out.Urgency)
	assert.Equal(t, "High", out.RiskLevel)
	assert.Equal(t, "Pre-cooling at nearest cold store (4 hrs)", out.TopAction)
	assert.Equal(t, 72.0, out.Confidence)
	assert.NotNil(t, out.Result)
	analyzer.AssertExpectations(t)
}

func TestHandler_Execute_GeneratesRequestID(t *testing.T) {
	analyzer := new(MockAnalyzer)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(sampleResult(), nil)

	h := createTestHandler(t, analyzer)
	out, err := h.execute(context.Background(), &Input{AnalysisRequest: models.AnalysisRequest{CropType: "tomato"}})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(out.RequestID)
	assert.NoError(t, parseErr)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"domain error passes through", errors.NewNoReachableMarketError("punjab", "ludhiana"), errors.ErrCodeNoReachableMarket},
		{"unsupported region", errors.NewUnsupportedRegionError("goa", "north_goa"), errors.ErrCodeUnsupportedRegion},
		{"unexpected error is wrapped", stderrors.New("boom"), errors.ErrCodeAnalysisFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := new(MockAnalyzer)
			analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.err)

			h := createTestHandler(t, analyzer)
			out, err := h.process(context.Background(), validVariables)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}

func TestHandler_Execute_WithEngine(t *testing.T) {
	e := engine.New(engine.Deps{
		Config: config.DefaultEngineConfig(),
		Clock:  engine.FixedClock{Date: time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)},
		Logger: logger.NewTestLogger(t),
	})

	h := createTestHandler(t, e)
	out, err := h.process(context.Background(), validVariables)
	require.NoError(t, err)

	assert.NotEmpty(t, out.BestMarket)
	assert.NotEmpty(t, out.HarvestWindow)
	assert.Contains(t, []string{"Low", "Medium", "High"}, out.RiskLevel)
	assert.GreaterOrEqual(t, out.Confidence, 0.0)
	assert.LessOrEqual(t, out.Confidence, 100.0)
	require.NotNil(t, out.Result)
	assert.Len(t, out.Result.ReasoningSteps, 4)
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, MaxJobsActive: 2, Timeout: 1500},
	}}
	assert.Equal(t, 1500*time.Millisecond, LoadConfig(cfg).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(&config.Config{}).Timeout)
}
