package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"conmart/internal/entitlement"
)

func TestCanRequestQuotation(t *testing.T) {
	statuses := []string{"unverified", "pending", "verified", "rejected", "expired"}

	// Free tier is blocked no matter the verification status.
	for _, vs := range statuses {
		assert.False(t, entitlement.CanRequestQuotation("free", vs), "free/%s", vs)
	}

	// Paid tiers require verified.
	assert.True(t, entitlement.CanRequestQuotation("standard", "verified"))
	assert.True(t, entitlement.CanRequestQuotation("premium", "verified"))
	for _, vs := range statuses {
		if vs == "verified" {
			continue
		}
		assert.False(t, entitlement.CanRequestQuotation("standard", vs), "standard/%s", vs)
		assert.False(t, entitlement.CanRequestQuotation("premium", vs), "premium/%s", vs)
	}
}

func TestCanMessageSupplier(t *testing.T) {
	assert.True(t, entitlement.CanMessageSupplier("premium", "verified"))

	for _, tier := range []string{"free", "standard", "premium"} {
		for _, vs := range []string{"unverified", "pending", "verified", "rejected", "expired"} {
			if tier == "premium" && vs == "verified" {
				continue
			}
			assert.False(t, entitlement.CanMessageSupplier(tier, vs), "%s/%s", tier, vs)
		}
	}
}

func TestCanMessageCustomers(t *testing.T) {
	assert.False(t, entitlement.CanMessageCustomers("basic"))
	assert.True(t, entitlement.CanMessageCustomers("standard"))
	assert.True(t, entitlement.CanMessageCustomers("premium"))
}

func TestNextUpgradePlan(t *testing.T) {
	assert.Equal(t, "standard_user", entitlement.NextUpgradePlan("user", "free"))
	assert.Equal(t, "premium_user", entitlement.NextUpgradePlan("user", "standard"))
	assert.Equal(t, "", entitlement.NextUpgradePlan("user", "premium"))

	assert.Equal(t, "standard_owner", entitlement.NextUpgradePlan("product_owner", "basic"))
	assert.Equal(t, "premium_owner", entitlement.NextUpgradePlan("product_owner", "standard"))
	assert.Equal(t, "", entitlement.NextUpgradePlan("product_owner", "premium"))
}

func TestProductLimits(t *testing.T) {
	assert.Equal(t, 1, entitlement.ProductLimit("basic"))
	assert.Equal(t, 10, entitlement.ProductLimit("standard"))
	assert.Equal(t, entitlement.Unlimited, entitlement.ProductLimit("premium"))

	assert.True(t, entitlement.HasReachedProductLimit("basic", 1))
	assert.False(t, entitlement.HasReachedProductLimit("basic", 0))
	assert.True(t, entitlement.HasReachedProductLimit("standard", 10))
	assert.False(t, entitlement.HasReachedProductLimit("standard", 9))
	assert.False(t, entitlement.HasReachedProductLimit("premium", 1000))
}

func TestQuotationQuota(t *testing.T) {
	assert.Equal(t, 0, entitlement.QuotationQuota("free", 10))
	assert.Equal(t, 10, entitlement.QuotationQuota("standard", 0)) // default
	assert.Equal(t, 25, entitlement.QuotationQuota("standard", 25))
	assert.Equal(t, entitlement.Unlimited, entitlement.QuotationQuota("premium", 10))

	assert.False(t, entitlement.QuotaExceeded("standard", 9, 10))
	assert.True(t, entitlement.QuotaExceeded("standard", 10, 10))
	assert.False(t, entitlement.QuotaExceeded("premium", 100000, 10))
}
