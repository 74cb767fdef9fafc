package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"unskewed/resample"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS resample_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        dataset_name TEXT NOT NULL,
        minority_ratio REAL NOT NULL,
        majority_ratio REAL NOT NULL,
        seed INTEGER NOT NULL,
        minority_size INTEGER NOT NULL,
        majority_size INTEGER NOT NULL,
        minority_target INTEGER NOT NULL,
        majority_target INTEGER NOT NULL,
        derived_seed INTEGER NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        UNIQUE(run_id)
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        run_id TEXT NOT NULL,
        model_name VARCHAR(50),
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        predicted_label TEXT NOT NULL,
        confidence REAL,
        timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = database.Exec(query)
	return err
}

// ResampleRun is one persisted resampling run.
type ResampleRun struct {
	RunID          string    `json:"run_id"`
	DatasetName    string    `json:"dataset_name"`
	MinorityRatio  float64   `json:"minority_ratio"`
	MajorityRatio  float64   `json:"majority_ratio"`
	Seed           int64     `json:"seed"`
	MinoritySize   int       `json:"minority_size"`
	MajoritySize   int       `json:"majority_size"`
	MinorityTarget int       `json:"minority_target"`
	MajorityTarget int       `json:"majority_target"`
	DerivedSeed    int64     `json:"derived_seed"`
	CreatedAt      time.Time `json:"created_at"`
}

// SaveResampleRun records the parameters and outcome of one resampling run.
func SaveResampleRun(runID, datasetName string, cfg resample.Config, result *resample.Result) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT OR REPLACE INTO resample_runs (
            run_id, dataset_name, minority_ratio, majority_ratio, seed,
            minority_size, majority_size, minority_target, majority_target, derived_seed
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, datasetName, cfg.MinorityRatio, cfg.MajorityRatio, cfg.Seed,
		result.MinoritySize, result.MajoritySize, result.MinorityTarget, result.MajorityTarget, result.DerivedSeed)
	return err
}

// LoadResampleRuns returns the persisted runs, newest first.
func LoadResampleRuns(limit int) ([]ResampleRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT run_id, dataset_name, minority_ratio, majority_ratio, seed,
               minority_size, majority_size, minority_target, majority_target,
               derived_seed, created_at
        FROM resample_runs
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]ResampleRun, 0)
	for rows.Next() {
		var run ResampleRun
		if err := rows.Scan(&run.RunID, &run.DatasetName, &run.MinorityRatio, &run.MajorityRatio,
			&run.Seed, &run.MinoritySize, &run.MajoritySize, &run.MinorityTarget,
			&run.MajorityTarget, &run.DerivedSeed, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// TrainingLog is one recorded training outcome.
type TrainingLog struct {
	RunID      string    `json:"run_id"`
	ModelName  string    `json:"model_name"`
	Accuracy   float64   `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

// SaveTrainingLog records a training outcome.
func SaveTrainingLog(entry TrainingLog) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if entry.TrainedAt.IsZero() {
		entry.TrainedAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO training_log (run_id, model_name, accuracy, precision, recall, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.ModelName, entry.Accuracy, entry.Precision, entry.Recall, entry.TrainedAt, entry.DataPoints)
	return err
}

// LoadTrainingLog returns recorded training outcomes, newest first.
func LoadTrainingLog() ([]TrainingLog, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT run_id, model_name, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.RunID, &log.ModelName, &log.Accuracy, &log.Precision, &log.Recall, &log.TrainedAt, &log.DataPoints); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

// SavePrediction records one prediction served for a run.
func SavePrediction(runID, label string, confidence float64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if runID == "" {
		return errors.New("run id required")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (run_id, predicted_label, confidence)
        VALUES (?, ?, ?)`,
		runID, label, confidence)
	return err
}
