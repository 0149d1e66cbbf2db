package automation

import (
	"math"
	"time"

	"github.com/checkfox/lead_engage/internal/models"
)

// Analytics aggregates the execution history
type Analytics struct {
	TotalRules           int            `json:"total_rules"`
	CustomRules          int            `json:"custom_rules"`
	TotalExecutions      int            `json:"total_executions"`
	SuccessfulExecutions int            `json:"successful_executions"`
	SuccessRate          float64        `json:"success_rate"`
	ExecutionsLast24h    int            `json:"executions_last_24h"`
	ByPriority           map[string]int `json:"by_priority"`
	ByTrigger            map[string]int `json:"by_trigger"`
}

// Analytics computes counters from the current catalog and history
func (e *Engine) Analytics() Analytics {
	rules := e.snapshot()
	history := e.Executions()
	cutoff := e.now().Add(-24 * time.Hour)

	a := Analytics{
		TotalRules:      len(rules),
		TotalExecutions: len(history),
		ByPriority: map[string]int{
			string(models.PriorityHigh):   0,
			string(models.PriorityMedium): 0,
			string(models.PriorityLow):    0,
		},
		ByTrigger: map[string]int{},
	}
	for _, r := range rules {
		if r.Custom {
			a.CustomRules++
		}
	}

	for _, ex := range history {
		if ex.Succeeded() {
			a.SuccessfulExecutions++
		}
		if !ex.StartedAt.Before(cutoff) {
			a.ExecutionsLast24h++
		}
		a.ByPriority[string(ex.Priority)]++
		a.ByTrigger[ex.Trigger]++
	}

	if a.TotalExecutions > 0 {
		rate := float64(a.SuccessfulExecutions) / float64(a.TotalExecutions)
		a.SuccessRate = math.Round(rate*10000) / 10000
	}
	return a
}
