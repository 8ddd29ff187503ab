package classifier

import (
	"context"
	"errors"
	"math/rand"

	"github.com/chrisdamba/orderly/internal/features"
	"github.com/chrisdamba/orderly/internal/models"
)

type TrainOptions struct {
	Options
	// TestFraction of rows held out for Report.Accuracy; 0 trains on everything.
	TestFraction float64
	// OnTree is called concurrently as trees finish.
	OnTree func()
}

type Report struct {
	TrainRows   int         `json:"train_rows"`
	TestRows    int         `json:"test_rows"`
	Accuracy    float64     `json:"accuracy"` // on the held-out rows, 0 without any
	ClassCounts map[int]int `json:"class_counts"`
}

// VectorOf returns the classifier input for a cleaned dataset row.
func VectorOf(r models.CleanedOrderRecord) features.Vector {
	return features.NewVector(r.DistanceNumeric, r.KPTDurationMinutes, r.RiderWaitMinutes, r.OrderHour)
}

// Train fits a forest on cleaned records against their performance labels.
func Train(ctx context.Context, records []models.CleanedOrderRecord, opts TrainOptions) (*Forest, Report, error) {
	report := Report{ClassCounts: map[int]int{}}
	if len(records) == 0 {
		return nil, report, errors.New("no records to train on")
	}

	x := make([]features.Vector, len(records))
	y := make([]int, len(records))
	for i, r := range records {
		x[i] = VectorOf(r)
		y[i] = r.PerformanceLabel
		report.ClassCounts[r.PerformanceLabel]++
	}

	trainX, trainY, testX, testY := holdOut(x, y, opts.TestFraction, opts.Seed)
	report.TrainRows, report.TestRows = len(trainX), len(testX)

	forest, err := fit(ctx, trainX, trainY, opts.Options, opts.OnTree)
	if err != nil {
		return nil, report, err
	}
	if len(testX) > 0 {
		correct := 0
		for i, v := range testX {
			pred, err := forest.Predict(v)
			if err != nil {
				return nil, report, err
			}
			if pred == testY[i] {
				correct++
			}
		}
		report.Accuracy = float64(correct) / float64(len(testX))
	}
	return forest, report, nil
}

func holdOut(x []features.Vector, y []int, fraction float64, seed int64) ([]features.Vector, []int, []features.Vector, []int) {
	nTest := int(fraction * float64(len(x)))
	if fraction <= 0 || nTest == 0 || nTest >= len(x) {
		return x, y, nil, nil
	}
	perm := rand.New(rand.NewSource(seed)).Perm(len(x))

	var trainX, testX []features.Vector
	var trainY, testY []int
	for i, idx := range perm {
		if i < nTest {
			testX = append(testX, x[idx])
			testY = append(testY, y[idx])
		} else {
			trainX = append(trainX, x[idx])
			trainY = append(trainY, y[idx])
		}
	}
	return trainX, trainY, testX, testY
}
