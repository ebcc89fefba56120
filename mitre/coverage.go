package mitre

import (
	"math"

	"argus/core"
)

// TacticCoverage counts techniques within one tactic
type TacticCoverage struct {
	Total    int `json:"total"`
	Detected int `json:"detected"`
}

// CoverageStats summarizes how much of the technique table the collected
// intelligence references
type CoverageStats struct {
	TotalTechniques    int                       `json:"total_techniques"`
	DetectedTechniques int                       `json:"detected_techniques"`
	CoveragePercent    int                       `json:"coverage_percent"`
	ByTactic           map[string]TacticCoverage `json:"by_tactic"`
}

// ComputeCoverage builds coverage stats from the union of technique
// references across IOCs, analyses and incidents. An empty technique table
// yields zero percent rather than a division by zero.
func (r *Registry) ComputeCoverage(iocs []*core.IOC, analyses []*core.AIAnalysis, incidents []*core.Incident) *CoverageStats {
	detected := make(map[string]bool)
	for _, ioc := range iocs {
		for _, t := range ioc.MitreTechniques {
			detected[t] = true
		}
	}
	for _, a := range analyses {
		for _, t := range a.MitreTechniques {
			detected[t] = true
		}
	}
	for _, incident := range incidents {
		for _, t := range incident.MitreTechniques {
			detected[t] = true
		}
	}

	r.mu.RLock()
	techniques := r.techniques
	byTactic := make(map[string]TacticCoverage)
	for _, tech := range techniques {
		cov := byTactic[tech.Tactic]
		cov.Total++
		if detected[tech.TechniqueID] {
			cov.Detected++
		}
		byTactic[tech.Tactic] = cov
	}
	total := len(techniques)
	r.mu.RUnlock()

	stats := &CoverageStats{
		TotalTechniques:    total,
		DetectedTechniques: len(detected),
		ByTactic:           byTactic,
	}
	if total > 0 {
		stats.CoveragePercent = int(math.Round(float64(len(detected)) / float64(total) * 100))
	}
	return stats
}
