package sweeper

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/types"
)

func TestPastDue_AllCases(t *testing.T) {
	now := time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC)
	ago := func(days int) *time.Time {
		ts := now.AddDate(0, 0, -days)
		return &ts
	}
	ahead := func(days int) *time.Time {
		ts := now.AddDate(0, 0, days)
		return &ts
	}

	cases := []struct {
		name string
		sub  *models.Subscription
		want bool
	}{
		{
			name: "trial past end",
			sub:  &models.Subscription{Status: types.SubscriptionStatusTrial, TrialEndsAt: ago(1)},
			want: true,
		},
		{
			name: "trial still running",
			sub:  &models.Subscription{Status: types.SubscriptionStatusTrial, TrialEndsAt: ahead(5)},
			want: false,
		},
		{
			name: "non-renewing active past expiry",
			sub:  &models.Subscription{Status: types.SubscriptionStatusActive, AutoRenew: false, ExpiresAt: ago(1)},
			want: true,
		},
		{
			name: "non-renewing active before expiry",
			sub:  &models.Subscription{Status: types.SubscriptionStatusActive, AutoRenew: false, ExpiresAt: ahead(10)},
			want: false,
		},
		{
			name: "auto-renewing inside grace window",
			sub:  &models.Subscription{Status: types.SubscriptionStatusActive, AutoRenew: true, ExpiresAt: ago(2)},
			want: false,
		},
		{
			name: "auto-renewing past grace window",
			sub:  &models.Subscription{Status: types.SubscriptionStatusActive, AutoRenew: true, ExpiresAt: ago(4)},
			want: true,
		},
		{
			name: "active without expiry",
			sub:  &models.Subscription{Status: types.SubscriptionStatusActive, AutoRenew: true},
			want: false,
		},
		{
			name: "expired row untouched",
			sub:  &models.Subscription{Status: types.SubscriptionStatusExpired, ExpiresAt: ago(30)},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pastDue(tc.sub, now, 3))
		})
	}
}

func TestBuildSnapshots_MergesCountsAndRevenue(t *testing.T) {
	counts := []tierCount{
		{Tier: types.SubscriptionTierBasic, Status: types.SubscriptionStatusActive, Count: 12},
		{Tier: types.SubscriptionTierBasic, Status: types.SubscriptionStatusTrial, Count: 4},
		{Tier: types.SubscriptionTierPremium, Status: types.SubscriptionStatusActive, Count: 3},
	}
	paid := []tierPaid{
		{Tier: types.SubscriptionTierBasic, Sum: 120000},
		{Tier: types.SubscriptionTierEnterprise, Sum: 150000},
	}

	snaps := BuildSnapshots("2026-03-01", counts, paid)
	require.Len(t, snaps, 3)
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Tier < snaps[j].Tier })

	basic := snaps[0]
	require.Equal(t, types.SubscriptionTierBasic, basic.Tier)
	require.Equal(t, "2026-03-01", basic.SnapshotDate)
	require.Equal(t, int64(12), basic.ActiveCount)
	require.Equal(t, int64(4), basic.TrialCount)
	require.Equal(t, int64(120000), basic.PaidAmount)
	require.Equal(t, "MWK", basic.Currency)

	enterprise := snaps[1]
	require.Equal(t, types.SubscriptionTierEnterprise, enterprise.Tier)
	require.Equal(t, int64(0), enterprise.ActiveCount)
	require.Equal(t, int64(150000), enterprise.PaidAmount)

	premium := snaps[2]
	require.Equal(t, types.SubscriptionTierPremium, premium.Tier)
	require.Equal(t, int64(3), premium.ActiveCount)
	require.Equal(t, int64(0), premium.PaidAmount)
}

func TestBuildSnapshots_Empty(t *testing.T) {
	require.Empty(t, BuildSnapshots("2026-03-01", nil, nil))
}
