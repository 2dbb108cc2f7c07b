// Package testutil provides shared test infrastructure for d2sim.
// It holds the golden routing dataset types and their loader.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden_routes.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one network with the distances every router must converge to.
type GoldenTestCase struct {
	Name       string        `json:"name"`
	Seed       int64         `json:"seed"`
	HorizonMs  int64         `json:"horizon_ms"`
	DelayMinMs int64         `json:"delay_min_ms"`
	DelayMaxMs int64         `json:"delay_max_ms"`
	Nodes      []GoldenNode  `json:"nodes"`
	Links      []GoldenLink  `json:"links"`
	Routes     []GoldenRoute `json:"routes"`
}

// GoldenNode is a named host or router.
type GoldenNode struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// GoldenLink connects two nodes with the default delay.
type GoldenLink struct {
	A string `json:"a"`
	B string `json:"b"`
}

// GoldenRoute is the expected best distance from Router to Host.
type GoldenRoute struct {
	Router string `json:"router"`
	Host   string `json:"host"`
	Metric int    `json:"metric"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "golden_routes.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}
	if len(dataset.Tests) == 0 {
		t.Fatal("Golden dataset has no test cases")
	}

	return &dataset
}
