package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"unskewed/dataset"
	"unskewed/db"
	"unskewed/learner"
	"unskewed/monitoring"
	"unskewed/resample"
)

// trainedModel 训练完成的模型及其schema
type trainedModel struct {
	meta   *learner.Unskewed
	schema dataset.Schema
}

var (
	models     *lru.Cache[string, *trainedModel]
	runMonitor *monitoring.RunMonitor
)

// RegisterHandlers 注册所有API处理器
func RegisterHandlers(mux *http.ServeMux, monitor *monitoring.RunMonitor) {
	cache, err := lru.New[string, *trainedModel](32)
	if err != nil {
		panic(err) // only fails for size <= 0
	}
	models = cache
	runMonitor = monitor

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/train", handleTrain)
	mux.HandleFunc("POST /api/predict", handlePredict)
	mux.HandleFunc("GET /api/runs", handleRuns)
	mux.HandleFunc("GET /api/runs/{id}/measures", handleMeasures)
	mux.HandleFunc("GET /api/training-log", handleTrainingLog)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// TrainRequest 训练请求。比率字段用指针区分"未设置"和合法的0值
type TrainRequest struct {
	DatasetPath   string   `json:"dataset_path"`
	Encoding      string   `json:"encoding"`
	PositiveLabel string   `json:"positive_label"`
	NegativeLabel string   `json:"negative_label"`
	MinorityRatio *float64 `json:"minority_ratio"`
	MajorityRatio *float64 `json:"majority_ratio"`
	Seed          int64    `json:"seed"`
	MaxDepth      int      `json:"max_depth"`
}

// TrainResponse 训练响应
type TrainResponse struct {
	RunID          string `json:"run_id"`
	MinoritySize   int    `json:"minority_size"`
	MajoritySize   int    `json:"majority_size"`
	MinorityTarget int    `json:"minority_target"`
	MajorityTarget int    `json:"majority_target"`
	DerivedSeed    int64  `json:"derived_seed"`
	ResampledSize  int    `json:"resampled_size"`
	Model          string `json:"model"`
}

func handleTrain(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.DatasetPath == "" {
		http.Error(w, `{"error":"dataset_path is required"}`, http.StatusBadRequest)
		return
	}

	cfg := resample.DefaultConfig()
	if req.MinorityRatio != nil {
		cfg.MinorityRatio = *req.MinorityRatio
	}
	if req.MajorityRatio != nil {
		cfg.MajorityRatio = *req.MajorityRatio
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}

	runID := fmt.Sprintf("run_%d", time.Now().UnixNano())
	runMonitor.SendRunStarted(monitoring.RunStartedMessage{
		RunID:         runID,
		DatasetName:   req.DatasetPath,
		MinorityRatio: cfg.MinorityRatio,
		MajorityRatio: cfg.MajorityRatio,
		Seed:          cfg.Seed,
	})

	start := time.Now()
	resp, err := trainRun(runID, req, cfg)
	if err != nil {
		runMonitor.SendRunFailed(monitoring.RunFailedMessage{RunID: runID, Error: err.Error()})
		status := http.StatusInternalServerError
		if errors.Is(err, resample.ErrInvalidRatio) || errors.Is(err, resample.ErrEmptyGroup) ||
			errors.Is(err, resample.ErrInvalidLabelDomain) || errors.Is(err, learner.ErrCapability) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), status)
		return
	}

	runMonitor.SendRunCompleted(monitoring.RunCompletedMessage{
		RunID:          runID,
		MinorityTarget: resp.MinorityTarget,
		MajorityTarget: resp.MajorityTarget,
		DerivedSeed:    resp.DerivedSeed,
		DurationMs:     time.Since(start).Milliseconds(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func trainRun(runID string, req TrainRequest, cfg resample.Config) (*TrainResponse, error) {
	ds, err := dataset.LoadCSV(req.DatasetPath, dataset.LoadOptions{
		Encoding:      req.Encoding,
		PositiveLabel: req.PositiveLabel,
		NegativeLabel: req.NegativeLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	tree := learner.NewDecisionTree(req.MaxDepth)
	meta := learner.NewUnskewed(tree)
	meta.Config = cfg

	if err := meta.Build(ds); err != nil {
		return nil, err
	}
	result := meta.LastRun()

	if err := db.SaveResampleRun(runID, req.DatasetPath, cfg, result); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}
	if err := db.SaveTrainingLog(db.TrainingLog{
		RunID:      runID,
		ModelName:  "unskewed_decision_tree",
		DataPoints: result.Dataset.Len(),
	}); err != nil {
		return nil, fmt.Errorf("save training log: %w", err)
	}

	models.Add(runID, &trainedModel{meta: meta, schema: ds.Schema})

	return &TrainResponse{
		RunID:          runID,
		MinoritySize:   result.MinoritySize,
		MajoritySize:   result.MajoritySize,
		MinorityTarget: result.MinorityTarget,
		MajorityTarget: result.MajorityTarget,
		DerivedSeed:    result.DerivedSeed,
		ResampledSize:  result.Dataset.Len(),
		Model:          meta.String(),
	}, nil
}

// PredictRequest 预测请求
type PredictRequest struct {
	RunID    string    `json:"run_id"`
	Features []float64 `json:"features"`
}

// PredictResponse 预测响应
type PredictResponse struct {
	RunID        string    `json:"run_id"`
	Label        string    `json:"label"`
	Confidence   float64   `json:"confidence"`
	Distribution []float64 `json:"distribution"`
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.RunID == "" {
		http.Error(w, `{"error":"run_id is required"}`, http.StatusBadRequest)
		return
	}

	model, ok := models.Get(req.RunID)
	if !ok {
		http.Error(w, `{"error":"model not found (run may have been evicted)"}`, http.StatusNotFound)
		return
	}
	if len(req.Features) != len(model.schema.AttributeNames) {
		http.Error(w, fmt.Sprintf(`{"error":"expected %d features, got %d"}`,
			len(model.schema.AttributeNames), len(req.Features)), http.StatusBadRequest)
		return
	}

	record := dataset.Record{Features: req.Features}
	dist, err := model.meta.DistributionFor(record)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}
	label, confidence, err := model.meta.Classify(record, model.schema)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	if err := db.SavePrediction(req.RunID, label, confidence); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PredictResponse{
		RunID:        req.RunID,
		Label:        label,
		Confidence:   confidence,
		Distribution: dist,
	})
}

func handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := db.LoadResampleRuns(50)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

func handleTrainingLog(w http.ResponseWriter, r *http.Request) {
	logs, err := db.LoadTrainingLog()
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}

func handleMeasures(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	model, ok := models.Get(runID)
	if !ok {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
		return
	}

	measures := make(map[string]float64)
	for _, name := range model.meta.Measures() {
		value, err := model.meta.Measure(name)
		if err != nil {
			continue
		}
		measures[name] = value
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(measures)
}
