// Package entitlement is the single place tier and verification gating is
// decided. Handlers consult it before touching storage; it never errors and
// has no side effects.
package entitlement

import "conmart/internal/domain"

// Unlimited marks a limit that is not enforced.
const Unlimited = -1

// DefaultStandardQuotationLimit is the monthly allowance for standard-tier
// buyers unless overridden by config.
const DefaultStandardQuotationLimit = 10

// CanRequestQuotation reports whether a buyer may open a quotation request.
// Free tier never qualifies; paid tiers additionally require a verified
// account.
func CanRequestQuotation(tier, verificationStatus string) bool {
	switch tier {
	case domain.TierStandard, domain.TierPremium:
		return verificationStatus == domain.VerificationVerified
	default:
		return false
	}
}

// CanMessageSupplier reports whether a buyer may message a supplier directly.
// Premium and verified, nothing less.
func CanMessageSupplier(tier, verificationStatus string) bool {
	return tier == domain.TierPremium && verificationStatus == domain.VerificationVerified
}

// CanMessageCustomers reports whether a supplier may reply to buyers.
// Basic-plan owners cannot initiate or reply.
func CanMessageCustomers(ownerTier string) bool {
	return ownerTier == domain.TierStandard || ownerTier == domain.TierPremium
}

// NextUpgradePlan returns the plan code one step up from the current tier,
// or "" at the top. Buyer ladder: free -> standard -> premium. Owner ladder:
// basic -> standard -> premium.
func NextUpgradePlan(role, tier string) string {
	if role == domain.RoleProductOwner {
		switch tier {
		case domain.TierBasic:
			return "standard_owner"
		case domain.TierStandard:
			return "premium_owner"
		}
		return ""
	}
	switch tier {
	case domain.TierFree:
		return "standard_user"
	case domain.TierStandard:
		return "premium_user"
	}
	return ""
}

// ProductLimit returns how many listings an owner tier allows.
func ProductLimit(ownerTier string) int {
	switch ownerTier {
	case domain.TierBasic:
		return 1
	case domain.TierStandard:
		return 10
	case domain.TierPremium:
		return Unlimited
	}
	return 1
}

// HasReachedProductLimit reports whether creating one more listing would
// exceed the owner's plan.
func HasReachedProductLimit(ownerTier string, currentCount int) bool {
	limit := ProductLimit(ownerTier)
	return limit != Unlimited && currentCount >= limit
}

// QuotationQuota returns the monthly quotation allowance for a buyer tier.
// standardLimit <= 0 falls back to the default.
func QuotationQuota(tier string, standardLimit int) int {
	switch tier {
	case domain.TierPremium:
		return Unlimited
	case domain.TierStandard:
		if standardLimit <= 0 {
			return DefaultStandardQuotationLimit
		}
		return standardLimit
	}
	return 0
}

// QuotaExceeded reports whether a standard buyer has used up this month's
// quotations. Premium is never exceeded; free has no quota to exceed (it is
// blocked by CanRequestQuotation before quota is consulted).
func QuotaExceeded(tier string, usedThisMonth, standardLimit int) bool {
	quota := QuotationQuota(tier, standardLimit)
	return quota != Unlimited && usedThisMonth >= quota
}
