package entity

import (
	"math"
	"time"
)

const (
	MaxTaskScore = 100.0
	MinTaskScore = 0.0

	// DefaultFollowupDays is assumed when a task has no follow-up scheduled.
	DefaultFollowupDays = 3
	// RevenueCeiling is the revenue at which the revenue component saturates.
	RevenueCeiling = 50000.0

	staleDaysCap    = 10
	followupHorizon = 7
)

var tierWeights = map[Tier]float64{TierA: 3, TierB: 2, TierC: 1}

const (
	weightStaleness = 0.4
	weightFollowup  = 0.2
	weightTier      = 0.2
	weightRevenue   = 0.2
)

// Score rates how urgently a task needs attention, from 0 to 100. It
// weighs time since the last action, closeness of the next follow-up,
// customer tier and potential revenue. A waiting task whose follow-up is
// still in the future scores zero.
func (t *Task) Score(now time.Time) float64 {
	if t.Status == TaskStatusWaiting && t.NextFollowupDate != nil && t.NextFollowupDate.After(now) {
		return MinTaskScore
	}

	since := t.CreatedAt
	if t.LastActionDate != nil {
		since = *t.LastActionDate
	}
	stale := max(0, wholeDays(now.Sub(since)))
	staleScore := float64(min(stale, staleDaysCap)) / staleDaysCap * MaxTaskScore * weightStaleness

	until := DefaultFollowupDays
	if t.NextFollowupDate != nil {
		until = wholeDays(t.NextFollowupDate.Sub(now))
	}
	followupMax := MaxTaskScore * weightFollowup
	followupScore := followupMax
	if until >= 0 {
		followupScore = max(0, followupMax-float64(min(until, followupHorizon))*(followupMax/followupHorizon))
	}

	tierScore := tierWeights[t.CustomerTier] / tierWeights[TierA] * MaxTaskScore * weightTier

	// Negative revenue lowers the score; the total is clamped below.
	var revenue float64
	if t.PotentialRevenue != nil {
		revenue = *t.PotentialRevenue
	}
	revenueScore := min(revenue/RevenueCeiling, 1) * MaxTaskScore * weightRevenue

	total := staleScore + followupScore + tierScore + revenueScore
	return max(MinTaskScore, min(MaxTaskScore, total))
}

// wholeDays floors d to days, rounding towards negative infinity so an
// overdue follow-up of a few hours counts as one day late.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
