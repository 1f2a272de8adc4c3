package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// tokensMoved counts tokens debited or credited, by direction and ledger kind.
	tokensMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_tokens_total",
			Help: "Tokens moved through the quota ledger.",
		},
		[]string{"direction", "kind"},
	)

	// quotaRejections counts operations refused for lack of tokens.
	quotaRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_quota_rejections_total",
			Help: "Operations rejected because the balance could not cover them.",
		},
		[]string{"kind"},
	)

	// collaboratorFailures counts failed calls to the AI provider, the survey
	// platform and the payment processor.
	collaboratorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collaborator_failures_total",
			Help: "Failed calls to external collaborators.",
		},
		[]string{"collaborator"},
	)
)

func init() {
	prometheus.MustRegister(tokensMoved, quotaRejections, collaboratorFailures)
}
