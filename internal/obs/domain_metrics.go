package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartOperationsTotal counts cart mutations by operation and outcome.
	CartOperationsTotal *prometheus.CounterVec
	// PromotionRejectionsTotal counts promotion evaluations that yielded no discount, by reason.
	PromotionRejectionsTotal *prometheus.CounterVec
	// TenantRouteFallbackTotal counts lookups for tenants without a registered partition.
	TenantRouteFallbackTotal *prometheus.CounterVec
	// CartExpiredTotal counts carts deleted by the abandoned cart sweep.
	CartExpiredTotal *prometheus.CounterVec
	// PriceResolutionsTotal counts effective price lookups by source (rule or base).
	PriceResolutionsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Count of cart operations by outcome.",
		}, []string{"operation", "result"})
		PromotionRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_discount_rejections_total",
			Help:      "Count of promotion evaluations that produced a zero discount.",
		}, []string{"reason"})
		TenantRouteFallbackTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenant_route_fallback_total",
			Help:      "Count of data routing lookups that fell back to the default partition.",
		}, []string{"requested"})
		CartExpiredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_expired_total",
			Help:      "Number of abandoned carts removed per tenant.",
		}, []string{"tenant"})
		PriceResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_resolutions_total",
			Help:      "Count of effective price resolutions by source.",
		}, []string{"source"})

		for _, target := range []**prometheus.CounterVec{
			&CartOperationsTotal,
			&PromotionRejectionsTotal,
			&TenantRouteFallbackTotal,
			&CartExpiredTotal,
			&PriceResolutionsTotal,
		} {
			target := target
			mustRegisterCollector(reg, *target, func(existing prometheus.Collector) {
				if v, ok := existing.(*prometheus.CounterVec); ok {
					*target = v
				}
			})
		}
	})
}

// IncCartOperation records a cart operation outcome. It is a no-op until metrics are registered.
func IncCartOperation(operation string, err error) {
	if CartOperationsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	CartOperationsTotal.WithLabelValues(operation, result).Inc()
}

// IncPromotionRejection records why a promotion produced no discount.
func IncPromotionRejection(reason string) {
	if PromotionRejectionsTotal == nil {
		return
	}
	PromotionRejectionsTotal.WithLabelValues(reason).Inc()
}

// IncTenantFallback records a routing lookup for an unregistered tenant.
func IncTenantFallback(requested string) {
	if TenantRouteFallbackTotal == nil {
		return
	}
	TenantRouteFallbackTotal.WithLabelValues(requested).Inc()
}

// AddCartsExpired records the number of carts removed for tenant.
func AddCartsExpired(tenantID string, n int64) {
	if CartExpiredTotal == nil || n <= 0 {
		return
	}
	CartExpiredTotal.WithLabelValues(tenantID).Add(float64(n))
}

// IncPriceResolution records whether a price came from a rule or the base price.
func IncPriceResolution(source string) {
	if PriceResolutionsTotal == nil {
		return
	}
	PriceResolutionsTotal.WithLabelValues(source).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
}
