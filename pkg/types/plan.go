package types

// Plan is one row of the flat price table. The table is static configuration,
// never user input: management actions look prices up by (tier, cycle).
type Plan struct {
	Tier     SubscriptionTier `json:"tier" mapstructure:"tier"`
	Cycle    BillingCycle     `json:"cycle" mapstructure:"cycle"`
	Price    int64            `json:"price" mapstructure:"price"`
	Currency string           `json:"currency" mapstructure:"currency"`
}

// DefaultPlans is the built-in price table, in Malawian kwacha. A deployment
// may override it wholesale via the plans section of the config file.
func DefaultPlans() []*Plan {
	return []*Plan{
		{Tier: SubscriptionTierBasic, Cycle: BillingCycleMonthly, Price: 10000, Currency: "MWK"},
		{Tier: SubscriptionTierPremium, Cycle: BillingCycleMonthly, Price: 50000, Currency: "MWK"},
		{Tier: SubscriptionTierEnterprise, Cycle: BillingCycleMonthly, Price: 150000, Currency: "MWK"},
		{Tier: SubscriptionTierBasic, Cycle: BillingCycleYearly, Price: 100000, Currency: "MWK"},
		{Tier: SubscriptionTierPremium, Cycle: BillingCycleYearly, Price: 500000, Currency: "MWK"},
		{Tier: SubscriptionTierEnterprise, Cycle: BillingCycleYearly, Price: 1500000, Currency: "MWK"},
	}
}
