package domain

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Pending referral status. Entries leave the pending list when an admin decides on them.
const PendingStatusPending = "pending"

// Completed referral statuses.
const (
	ReferralStatusCompleted = "completed"
	ReferralStatusFailed    = "failed"
)

// Payout record statuses mirror the transfer statuses reported by Paystack.
const (
	PayoutStatusPending  = "pending"
	PayoutStatusSuccess  = "success"
	PayoutStatusFailed   = "failed"
	PayoutStatusReversed = "reversed"
)

// Shipping tiers, most specific first.
const (
	TierCity    = "city"
	TierState   = "state"
	TierDefault = "default"
)

const (
	ShippingMethodStandard = "Standard Delivery"
	ShippingFreeSuffix     = " (Free)"
	CurrencyNGN            = "NGN"
)

// ShippingConfigKey identifies the singleton shipping configuration row.
const ShippingConfigKey = "default"

// Setting keys editable from the admin dashboard.
const (
	SettingReferralCommissionRate = "referral_commission_rate"
	SettingDefaultMinPayout       = "referral_min_payout_kobo"
)

// Notification types.
const (
	NotifReferralApproved = "REFERRAL_APPROVED"
	NotifReferralRejected = "REFERRAL_REJECTED"
	NotifReferralEarned   = "REFERRAL_PENDING"
	NotifPayoutSent       = "PAYOUT_SENT"
)

// Audit actions.
const (
	AuditReferralApproved = "referral_approved"
	AuditReferralRejected = "referral_rejected"
	AuditPayoutSettled    = "payout_settled"
	AuditPayoutReleased   = "payout_claim_released"
	AuditBankVerified     = "bank_details_verified"
)
