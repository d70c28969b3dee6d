package graph

import (
	"math"
	"time"

	"equipflow/sei/internal/db"
)

// HealthBreakdown shows the sub-scores of the health formula
type HealthBreakdown struct {
	Connectivity float64 `json:"connectivity"`
	Components   float64 `json:"components"`
	Freshness    float64 `json:"freshness"`
	HubCoverage  float64 `json:"hub_coverage"`
}

// AnalysisReport is the full link-graph analysis result
type AnalysisReport struct {
	HealthScore     float64          `json:"health_score"`
	HealthBreakdown HealthBreakdown  `json:"health_breakdown"`
	Topology        *TopologyReport  `json:"topology"`
	Staleness       *StalenessReport `json:"staleness"`
}

// AnalyzerConfig holds analysis parameters
type AnalyzerConfig struct {
	TopN      int
	StaleDays int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		TopN:      20,
		StaleDays: 30,
	}
}

// Analyze runs all analyses and computes a composite health score in [0,1]
func Analyze(snap *Snapshot, config *AnalyzerConfig, now time.Time) *AnalysisReport {
	topology := ComputeTopology(snap, config.TopN)
	staleness := ComputeStaleness(snap, config.StaleDays, now)

	total := float64(topology.TotalPages)
	var connectivity, components, freshness, coverage float64

	if total > 0 {
		connectivity = clamp(1.0-math.Min(float64(topology.UnlinkedCount)/total, 0.2)*5.0, 0, 1)
	}
	if topology.NumComponents > 0 {
		components = clamp(1.0/float64(topology.NumComponents), 0, 1)
	}
	freshness = 1
	if staleness.PublishedCount > 0 {
		freshness = clamp(1.0-float64(staleness.StaleCount)/float64(staleness.PublishedCount), 0, 1)
	}
	coverage = hubCoverage(snap, topology)

	return &AnalysisReport{
		HealthScore: 0.30*connectivity + 0.25*components + 0.20*freshness + 0.25*coverage,
		HealthBreakdown: HealthBreakdown{
			Connectivity: connectivity,
			Components:   components,
			Freshness:    freshness,
			HubCoverage:  coverage,
		},
		Topology:  topology,
		Staleness: staleness,
	}
}

// hubCoverage is the share of spokes with a live parent hub that link back to it.
func hubCoverage(snap *Snapshot, topology *TopologyReport) float64 {
	spokes := 0
	for _, p := range snap.Pages {
		if p.Category != db.CategorySpoke || p.ParentHubID == nil {
			continue
		}
		if _, ok := snap.Pages[*p.ParentHubID]; ok {
			spokes++
		}
	}
	if spokes == 0 {
		return 1
	}
	return clamp(1.0-float64(len(topology.DetachedSpokes))/float64(spokes), 0, 1)
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
