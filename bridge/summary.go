package bridge

import (
	json "github.com/goccy/go-json"
)

// RunSummary is the end-of-run JSON artifact: final counters plus the
// configuration that produced them, for offline comparison across runs.
type RunSummary struct {
	Flow       string        `json:"flow_policy"`
	Scheduling string        `json:"scheduler_policy"`
	Left       VehicleCounts `json:"left"`
	Right      VehicleCounts `json:"right"`
	Metrics    Snapshot      `json:"metrics"`
	Clean      bool          `json:"clean_completion"`
}

// MarshalSummary renders s as indented JSON.
func MarshalSummary(s RunSummary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
