package wishlist

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var toggles = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_wishlist_toggles_total",
	Help: "Wishlist toggles by path (guest or account) and result.",
}, []string{"path", "result"})
