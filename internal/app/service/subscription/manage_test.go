package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/pkg/types"
)

func TestProrate_AllCases(t *testing.T) {
	now := time.Now()
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name      string
		oldPrice  int64
		newPrice  int64
		expiresAt *time.Time
		cycleDays int
		want      int64
	}{
		{
			// basic -> premium with half a monthly cycle left
			name:      "upgrade midway through monthly cycle",
			oldPrice:  10000,
			newPrice:  50000,
			expiresAt: at(15 * 24 * time.Hour),
			cycleDays: 30,
			want:      20000,
		},
		{
			name:      "downgrade credit",
			oldPrice:  50000,
			newPrice:  10000,
			expiresAt: at(15 * 24 * time.Hour),
			cycleDays: 30,
			want:      -20000,
		},
		{
			name:      "partial day rounds up",
			oldPrice:  10000,
			newPrice:  50000,
			expiresAt: at(14*24*time.Hour + time.Hour),
			cycleDays: 30,
			want:      20000,
		},
		{
			name:      "full cycle remaining",
			oldPrice:  10000,
			newPrice:  50000,
			expiresAt: at(30 * 24 * time.Hour),
			cycleDays: 30,
			want:      40000,
		},
		{
			name:      "nil expiry",
			oldPrice:  10000,
			newPrice:  50000,
			expiresAt: nil,
			cycleDays: 30,
			want:      0,
		},
		{
			name:      "already expired",
			oldPrice:  10000,
			newPrice:  50000,
			expiresAt: at(-24 * time.Hour),
			cycleDays: 30,
			want:      0,
		},
		{
			name:      "yearly cycle",
			oldPrice:  100000,
			newPrice:  500000,
			expiresAt: at(100 * 24 * time.Hour),
			cycleDays: 365,
			want:      400000 * 100 / 365,
		},
		{
			name:      "zero cycle days",
			oldPrice:  10000,
			newPrice:  50000,
			expiresAt: at(15 * 24 * time.Hour),
			cycleDays: 0,
			want:      0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Prorate(tc.oldPrice, tc.newPrice, tc.expiresAt, now, tc.cycleDays)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPickPayable_AllCases(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	active := &models.Subscription{ID: "active-1", Status: types.SubscriptionStatusActive}
	trial := &models.Subscription{ID: "trial-1", Status: types.SubscriptionStatusTrial}
	selected := &models.Subscription{ID: "selected-1", Status: types.SubscriptionStatusInactive}
	selectedOld := &models.Subscription{ID: "selected-0", Status: types.SubscriptionStatusInactive}
	canceled := &models.Subscription{ID: "canceled-1", Status: types.SubscriptionStatusInactive, CanceledAt: &past}
	expired := &models.Subscription{ID: "expired-1", Status: types.SubscriptionStatusExpired}

	tests := []struct {
		name string
		rows []*models.Subscription
		want string
	}{
		{name: "no rows", rows: nil, want: ""},
		{name: "active row wins", rows: []*models.Subscription{active, selected}, want: "active-1"},
		{name: "trial row wins", rows: []*models.Subscription{trial, canceled}, want: "trial-1"},
		{name: "selected plan awaiting first payment", rows: []*models.Subscription{selected}, want: "selected-1"},
		{name: "billable preferred over newer selection", rows: []*models.Subscription{selected, active}, want: "active-1"},
		{name: "newest selection wins", rows: []*models.Subscription{selected, selectedOld}, want: "selected-1"},
		{name: "canceled row is not payable", rows: []*models.Subscription{canceled}, want: ""},
		{name: "expired row is not payable", rows: []*models.Subscription{expired}, want: ""},
		{name: "canceled skipped for older selection", rows: []*models.Subscription{canceled, selectedOld}, want: "selected-0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := PickPayable(tc.rows)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.ID)
		})
	}
}

func TestTierChangeTransition_Upgrade(t *testing.T) {
	now := time.Now()
	expires := now.Add(15 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:        "sub-1",
		CoachID:   "coach-1",
		Tier:      types.SubscriptionTierBasic,
		Cycle:     types.BillingCycleMonthly,
		Price:     10000,
		Currency:  "MWK",
		Status:    types.SubscriptionStatusActive,
		ExpiresAt: &expires,
	}
	plan := &types.Plan{Tier: types.SubscriptionTierPremium, Cycle: types.BillingCycleMonthly, Price: 50000, Currency: "MWK"}

	change, notif, prorated := tierChangeTransition(sub, plan, types.SubscriptionChangeTypeUpgrade, now)

	require.Equal(t, int64(20000), prorated)
	require.Equal(t, types.SubscriptionTierPremium, sub.Tier)
	require.Equal(t, int64(50000), sub.Price)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)

	require.NotNil(t, change)
	require.Equal(t, "sub-1", change.SubscriptionID)
	require.Equal(t, types.SubscriptionChangeTypeUpgrade, change.ChangeType)
	require.Equal(t, types.SubscriptionTierBasic, change.FromTier)
	require.Equal(t, types.SubscriptionTierPremium, change.ToTier)
	require.Equal(t, int64(10000), change.FromPrice)
	require.Equal(t, int64(50000), change.ToPrice)
	require.Equal(t, int64(20000), change.ProratedAmount)

	require.NotNil(t, notif)
	require.Equal(t, types.NotificationTypeSubscriptionChanged, notif.Type)
	require.Equal(t, "coach-1", notif.CoachID)
}

func TestTierChangeTransition_TrialKeepsTrialAndProratesNothing(t *testing.T) {
	now := time.Now()
	trialEnds := now.Add(7 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:          "sub-1",
		CoachID:     "coach-1",
		Tier:        types.SubscriptionTierBasic,
		Cycle:       types.BillingCycleMonthly,
		Price:       10000,
		Status:      types.SubscriptionStatusTrial,
		IsTrial:     true,
		TrialEndsAt: &trialEnds,
		ExpiresAt:   &trialEnds,
	}
	plan := &types.Plan{Tier: types.SubscriptionTierPremium, Cycle: types.BillingCycleMonthly, Price: 50000, Currency: "MWK"}

	change, notif, prorated := tierChangeTransition(sub, plan, types.SubscriptionChangeTypeUpgrade, now)

	require.Zero(t, prorated)
	require.Equal(t, types.SubscriptionStatusTrial, sub.Status)
	require.True(t, sub.IsTrial)
	require.Equal(t, types.SubscriptionTierPremium, sub.Tier)
	require.NotNil(t, change)
	require.NotNil(t, notif)
	require.Zero(t, change.ProratedAmount)
}

func TestCancelTransition_Immediate(t *testing.T) {
	now := time.Now()
	expires := now.Add(20 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:        "sub-1",
		CoachID:   "coach-1",
		Tier:      types.SubscriptionTierPremium,
		Status:    types.SubscriptionStatusActive,
		AutoRenew: true,
		ExpiresAt: &expires,
	}
	req := &ManageRequest{
		Action:             types.SubscriptionChangeTypeCancel,
		EffectiveDate:      EffectiveImmediate,
		CancellationReason: "too expensive",
	}

	change, notif, cancelDate := cancelTransition(sub, req, now)

	require.Equal(t, types.SubscriptionStatusInactive, sub.Status)
	require.False(t, sub.AutoRenew)
	require.NotNil(t, sub.CanceledAt)
	require.NotNil(t, sub.CancellationReason)
	require.Equal(t, "too expensive", *sub.CancellationReason)
	require.True(t, now.Equal(cancelDate))

	require.NotNil(t, change)
	require.Equal(t, types.SubscriptionChangeTypeCancel, change.ChangeType)
	require.NotNil(t, notif)
	require.Equal(t, types.NotificationTypeSubscriptionCanceled, notif.Type)
}

func TestCancelTransition_EndOfPeriodStaysActive(t *testing.T) {
	now := time.Now()
	expires := now.Add(20 * 24 * time.Hour)
	sub := &models.Subscription{
		ID:        "sub-1",
		CoachID:   "coach-1",
		Status:    types.SubscriptionStatusActive,
		AutoRenew: true,
		ExpiresAt: &expires,
	}
	req := &ManageRequest{Action: types.SubscriptionChangeTypeCancel, EffectiveDate: EffectiveEndOfPeriod}

	change, notif, cancelDate := cancelTransition(sub, req, now)

	// The row keeps serving until the expiry sweep retires it.
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.False(t, sub.AutoRenew)
	require.NotNil(t, sub.CanceledAt)
	require.True(t, expires.Equal(cancelDate))
	require.True(t, expires.Equal(change.EffectiveDate))
	require.NotNil(t, notif)
}

func TestReactivateTransition(t *testing.T) {
	now := time.Now()
	canceledAt := now.Add(-24 * time.Hour)
	expires := now.Add(10 * 24 * time.Hour)

	t.Run("not canceled", func(t *testing.T) {
		sub := &models.Subscription{Status: types.SubscriptionStatusActive, AutoRenew: true}
		_, _, err := reactivateTransition(sub, now)
		require.ErrorIs(t, err, ErrNotCanceled)
	})

	t.Run("past expiry", func(t *testing.T) {
		past := now.Add(-time.Hour)
		sub := &models.Subscription{Status: types.SubscriptionStatusActive, CanceledAt: &canceledAt, ExpiresAt: &past}
		_, _, err := reactivateTransition(sub, now)
		require.ErrorIs(t, err, ErrNotCanceled)
	})

	t.Run("canceled inside paid period", func(t *testing.T) {
		reason := "too expensive"
		sub := &models.Subscription{
			ID:                 "sub-1",
			CoachID:            "coach-1",
			Status:             types.SubscriptionStatusActive,
			CanceledAt:         &canceledAt,
			CancellationReason: &reason,
			ExpiresAt:          &expires,
		}
		change, notif, err := reactivateTransition(sub, now)
		require.NoError(t, err)
		require.Equal(t, types.SubscriptionStatusActive, sub.Status)
		require.True(t, sub.AutoRenew)
		require.Nil(t, sub.CanceledAt)
		require.Nil(t, sub.CancellationReason)
		require.Equal(t, types.SubscriptionChangeTypeReactivate, change.ChangeType)
		require.Equal(t, types.NotificationTypeSubscriptionRenewed, notif.Type)
	})
}

func TestManageRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ManageRequest
		wantErr error
	}{
		{
			name: "valid upgrade",
			req:  ManageRequest{Action: types.SubscriptionChangeTypeUpgrade, NewTier: types.SubscriptionTierPremium, NewCycle: types.BillingCycleMonthly},
		},
		{
			name: "valid downgrade",
			req:  ManageRequest{Action: types.SubscriptionChangeTypeDowngrade, NewTier: types.SubscriptionTierBasic, NewCycle: types.BillingCycleYearly},
		},
		{
			name:    "upgrade without tier",
			req:     ManageRequest{Action: types.SubscriptionChangeTypeUpgrade, NewCycle: types.BillingCycleMonthly},
			wantErr: ErrPlanNotFound,
		},
		{
			name:    "upgrade with bad cycle",
			req:     ManageRequest{Action: types.SubscriptionChangeTypeUpgrade, NewTier: types.SubscriptionTierPremium, NewCycle: "weekly"},
			wantErr: ErrPlanNotFound,
		},
		{
			name: "cancel immediate",
			req:  ManageRequest{Action: types.SubscriptionChangeTypeCancel, EffectiveDate: EffectiveImmediate},
		},
		{
			name: "cancel end of period",
			req:  ManageRequest{Action: types.SubscriptionChangeTypeCancel, EffectiveDate: EffectiveEndOfPeriod},
		},
		{
			name:    "cancel without effective date",
			req:     ManageRequest{Action: types.SubscriptionChangeTypeCancel},
			wantErr: ErrInvalidEffectiveDate,
		},
		{
			name: "reactivate needs no extras",
			req:  ManageRequest{Action: types.SubscriptionChangeTypeReactivate},
		},
		{
			name:    "unknown action",
			req:     ManageRequest{Action: "pause"},
			wantErr: ErrInvalidAction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
