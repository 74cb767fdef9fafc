package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"unskewed/dataset"
	"unskewed/db"
	"unskewed/learner"
	"unskewed/resample"
)

func main() {
	dataPath := flag.String("data", "", "labeled CSV dataset (last column is the class label)")
	encoding := flag.String("encoding", "utf8", "dataset encoding (utf8 or gbk)")
	positive := flag.String("positive", "", "positive label value (inferred when empty)")
	negative := flag.String("negative", "", "negative label value (inferred when empty)")
	minorityRatio := flag.Float64("minority_ratio", 1.0, "minority sample ratio")
	majorityRatio := flag.Float64("majority_ratio", 0.5, "majority sample ratio")
	seed := flag.Int64("seed", 1, "resampling seed")
	maxDepth := flag.Int("max_depth", 10, "max tree depth")
	testRatio := flag.Float64("test_ratio", 0.2, "holdout ratio for evaluation")
	modelPath := flag.String("model_path", "./models/unskewed.model", "model output path")
	dbPath := flag.String("db", "", "sqlite database for the training log (skipped when empty)")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	ds, err := dataset.LoadCSV(*dataPath, dataset.LoadOptions{
		Encoding:      *encoding,
		PositiveLabel: *positive,
		NegativeLabel: *negative,
	})
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	labeled := ds.DropMissingLabels()
	train, test := splitDataset(labeled, *testRatio, *seed)

	tree := learner.NewDecisionTree(*maxDepth)
	meta := learner.NewUnskewed(tree)
	meta.Config = resample.Config{
		MinorityRatio: *minorityRatio,
		MajorityRatio: *majorityRatio,
		Seed:          *seed,
	}

	if err := meta.Build(train); err != nil {
		log.Fatalf("failed to build model: %v", err)
	}

	run := meta.LastRun()
	log.Printf("resampled %d minority + %d majority records (derived seed %d)",
		run.MinorityTarget, run.MajorityTarget, run.DerivedSeed)

	accuracy, precision, recall := evaluateModel(meta, test)
	log.Printf("accuracy=%.2f precision=%.2f recall=%.2f", accuracy, precision, recall)

	if *dbPath != "" {
		if err := db.InitDB(*dbPath); err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		entry := db.TrainingLog{
			RunID:      fmt.Sprintf("cli_%d", *seed),
			ModelName:  "unskewed_decision_tree",
			Accuracy:   accuracy,
			Precision:  precision,
			Recall:     recall,
			DataPoints: train.Len(),
		}
		if err := db.SaveTrainingLog(entry); err != nil {
			log.Fatalf("failed to record training log: %v", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*modelPath), 0o755); err != nil {
		log.Fatalf("failed to create model dir: %v", err)
	}
	if err := tree.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}

func splitDataset(ds *dataset.Dataset, testRatio float64, seed int64) (train, test *dataset.Dataset) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(ds.Len())

	split := int(math.Round(float64(ds.Len()) * (1 - testRatio)))
	train = ds.Empty(split)
	test = ds.Empty(ds.Len() - split)
	for i, idx := range indices {
		if i < split {
			train.Append(ds.Records[idx])
		} else {
			test.Append(ds.Records[idx])
		}
	}
	return train, test
}

func evaluateModel(meta *learner.Unskewed, test *dataset.Dataset) (accuracy, precision, recall float64) {
	if test.Len() == 0 {
		return 0, 0, 0
	}

	positive := test.Schema.LabelValues[0]
	var correct int
	var truePositive int
	var predictedPositive int
	var actualPositive int

	for _, record := range test.Records {
		label, _, err := meta.Classify(record, test.Schema)
		if err != nil {
			continue
		}
		if label == record.Label {
			correct++
		}
		if label == positive {
			predictedPositive++
		}
		if record.Label == positive {
			actualPositive++
			if label == positive {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(test.Len())
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall
}
