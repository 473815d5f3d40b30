package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transfersObserved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbridge_relay_transfers_observed_total",
			Help: "Total number of bridge burns observed by the relayer",
		}, []string{"direction"})
	transfersRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbridge_relay_transfers_relayed_total",
			Help: "Total number of bridge burns matched by a mint",
		}, []string{"direction"})
	transfersSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbridge_relay_transfers_skipped_total",
			Help: "Total number of repeated burn notifications skipped by the relayer",
		}, []string{"direction"})
	transfersFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbridge_relay_transfers_failed_total",
			Help: "Total number of bridge burns the relayer failed to mint",
		}, []string{"direction"})
	relayedAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokenbridge_relay_amount_total",
			Help: "Total amount of tokens minted by the relayer",
		}, []string{"direction"})
)
