package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	countMismatch = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_count_mismatch_total",
		Help: "Times the server cart count disagreed with the summed line quantities.",
	})

	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Cart mutations by operation, path (guest or account) and result.",
	}, []string{"operation", "path", "result"})
)
