// Package cache builds Redis keys namespaced by tenant or partition.
package cache

import (
	"github.com/noah-isme/toko-tenant-cart/internal/tenant"
)

// KeyProduct returns the cache key of a product stored in partition. Keys
// follow the routed partition, not the calling tenant, so every tenant that
// reads the same row shares one entry.
func KeyProduct(partition, productID string) string {
	if partition == "" {
		partition = tenant.DefaultID
	}
	return tenant.PrefixKey(partition, "product:"+productID)
}

// KeyLock returns the per-tenant key of a named distributed lock.
func KeyLock(tenantID, name string) string {
	return tenant.PrefixKey(tenantID, "lock:"+name)
}
