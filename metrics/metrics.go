// Package metrics holds the prometheus collectors for referral and winner activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WinnerSelections counts select-and-process runs by period and outcome
// (winner_recorded, no_winner, already_processed, failed).
var WinnerSelections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rewards_winner_selections_total",
	Help: "Winner selection runs by period type and outcome.",
}, []string{"period", "outcome"})

// PayoutsCredited counts balance credits applied to winners.
var PayoutsCredited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rewards_payouts_credited_total",
	Help: "Winner payouts committed to user balances.",
}, []string{"period"})

// NotificationFailures counts winner notifications that could not be delivered.
var NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rewards_notification_failures_total",
	Help: "Winner notifications that failed after the payout committed.",
}, []string{"period"})

var LeaderboardDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "rewards_leaderboard_query_seconds",
	Help:    "Time spent aggregating a window leaderboard.",
	Buckets: prometheus.DefBuckets,
}, []string{"scope"})

var ReferralsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rewards_referrals_processed_total",
	Help: "Referral attempts by result.",
}, []string{"result"})
