package models

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/tiyeni/coachpay/pkg/types"
)

func TestSubscription_BillableUniqueIndex(t *testing.T) {
	s, err := schema.Parse(&Subscription{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	var idx *schema.Index
	for _, i := range s.ParseIndexes() {
		if i.Name == "idx_sub_coach_billable" {
			idx = i
		}
	}
	require.NotNil(t, idx)
	require.Equal(t, "UNIQUE", idx.Class)
	// The predicate must survive the index-tag parser intact; a comma inside
	// it would be eaten as an option separator and truncate the WHERE clause.
	require.Equal(t, "status = 'trial' OR status = 'active'", idx.Where)
	require.Len(t, idx.Fields, 1)
	require.Equal(t, "CoachID", idx.Fields[0].Field.Name)
}

func TestSubscription_Billable(t *testing.T) {
	var nilSub *Subscription
	require.False(t, nilSub.Billable())

	require.True(t, (&Subscription{Status: types.SubscriptionStatusTrial}).Billable())
	require.True(t, (&Subscription{Status: types.SubscriptionStatusActive}).Billable())
	require.False(t, (&Subscription{Status: types.SubscriptionStatusInactive}).Billable())
	require.False(t, (&Subscription{Status: types.SubscriptionStatusExpired}).Billable())
}

func TestSubscription_Canceled(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name string
		sub  *Subscription
		want bool
	}{
		{name: "nil", sub: nil, want: false},
		{name: "never canceled", sub: &Subscription{AutoRenew: true}, want: false},
		{
			name: "canceled before expiry",
			sub:  &Subscription{CanceledAt: &past, AutoRenew: false, ExpiresAt: &future},
			want: true,
		},
		{
			name: "canceled with no expiry",
			sub:  &Subscription{CanceledAt: &past, AutoRenew: false},
			want: true,
		},
		{
			name: "canceled but already past expiry",
			sub:  &Subscription{CanceledAt: &past, AutoRenew: false, ExpiresAt: &past},
			want: false,
		},
		{
			name: "canceled_at set but auto renew back on",
			sub:  &Subscription{CanceledAt: &past, AutoRenew: true, ExpiresAt: &future},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.sub.Canceled())
		})
	}
}

func TestBillingHistory_Retryable(t *testing.T) {
	var nilRow *BillingHistory
	require.False(t, nilRow.Retryable())

	require.True(t, (&BillingHistory{Status: types.BillingStatusFailed, RetryCount: 0}).Retryable())
	require.True(t, (&BillingHistory{Status: types.BillingStatusPending, RetryCount: MaxPaymentRetries - 1}).Retryable())
	require.False(t, (&BillingHistory{Status: types.BillingStatusPaid}).Retryable())
	require.False(t, (&BillingHistory{Status: types.BillingStatusFailed, RetryCount: MaxPaymentRetries}).Retryable())
}

func TestCoachProfile_IntegrationReady(t *testing.T) {
	var nilCoach *CoachProfile
	require.False(t, nilCoach.IntegrationReady())

	require.False(t, (&CoachProfile{PaychanguEnabled: true}).IntegrationReady())
	require.False(t, (&CoachProfile{PaychanguSecret: "sk-coach"}).IntegrationReady())
	require.True(t, (&CoachProfile{PaychanguEnabled: true, PaychanguSecret: "sk-coach"}).IntegrationReady())
}
