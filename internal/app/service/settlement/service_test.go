package settlement

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tiyeni/coachpay/internal/models"
	"github.com/tiyeni/coachpay/internal/platform/paychangu"
	"github.com/tiyeni/coachpay/pkg/types"
)

type stubVerifier struct {
	res *paychangu.VerifyResponse
	err error
}

func (v stubVerifier) VerifyPayment(_ context.Context, _, _ string) (*paychangu.VerifyResponse, error) {
	return v.res, v.err
}

func confirmedResponse(status string) *paychangu.VerifyResponse {
	res := &paychangu.VerifyResponse{Status: "success"}
	res.Data.Status = status
	return res
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"tx_ref":"sub_1_1700000000000","status":"successful"}`)

	require.True(t, VerifySignature("whsec-1", body, sign("whsec-1", body)))
	require.False(t, VerifySignature("whsec-1", body, sign("other-secret", body)))
	require.False(t, VerifySignature("whsec-1", []byte(`{"tampered":true}`), sign("whsec-1", body)))
	require.False(t, VerifySignature("whsec-1", body, ""))
	require.False(t, VerifySignature("", body, sign("", body)))
}

func TestNextExpiry_AllCases(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name      string
		current   *time.Time
		cycleDays int
		want      time.Time
	}{
		{
			name:      "no prior expiry starts from settlement",
			current:   nil,
			cycleDays: 30,
			want:      now.AddDate(0, 0, 30),
		},
		{
			name:      "future expiry keeps unexpired time",
			current:   at(10 * 24 * time.Hour),
			cycleDays: 30,
			want:      now.Add(10 * 24 * time.Hour).AddDate(0, 0, 30),
		},
		{
			name:      "past expiry restarts from settlement",
			current:   at(-5 * 24 * time.Hour),
			cycleDays: 30,
			want:      now.AddDate(0, 0, 30),
		},
		{
			name:      "yearly cycle",
			current:   nil,
			cycleDays: 365,
			want:      now.AddDate(0, 0, 365),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextExpiry(tc.current, now, tc.cycleDays)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestSettleTransition_ConfirmedActivates(t *testing.T) {
	now := time.Now()
	trialEnds := now.Add(3 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:      types.SubscriptionStatusTrial,
		IsTrial:     true,
		TrialEndsAt: &trialEnds,
		Cycle:       types.BillingCycleMonthly,
	}

	notifType := settleTransition(sub, true, now)

	require.Equal(t, types.NotificationTypeSubscriptionRenewed, notifType)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.False(t, sub.IsTrial)
	require.Nil(t, sub.TrialEndsAt)
	require.NotNil(t, sub.ExpiresAt)
	require.NotNil(t, sub.NextBillingDate)
	require.True(t, sub.ExpiresAt.Equal(now.AddDate(0, 0, 30)))
}

func TestSettleTransition_NotConfirmedDeactivates(t *testing.T) {
	now := time.Now()
	expires := now.Add(10 * 24 * time.Hour)
	sub := &models.Subscription{
		Status:    types.SubscriptionStatusActive,
		Cycle:     types.BillingCycleMonthly,
		ExpiresAt: &expires,
	}

	notifType := settleTransition(sub, false, now)

	require.Equal(t, types.NotificationTypePaymentFailed, notifType)
	require.Equal(t, types.SubscriptionStatusInactive, sub.Status)
	require.True(t, expires.Equal(*sub.ExpiresAt))
}

func TestConfirm_AllCases(t *testing.T) {
	tests := []struct {
		name   string
		status string
		gw     stubVerifier
		want   bool
	}{
		{
			name:   "inbound failed status never verifies",
			status: "failed",
			gw:     stubVerifier{res: confirmedResponse("success")},
			want:   false,
		},
		{
			name:   "successful callback confirmed by gateway",
			status: StatusSuccessful,
			gw:     stubVerifier{res: confirmedResponse("success")},
			want:   true,
		},
		{
			// the gateway disagreeing with the callback must not settle
			name:   "successful callback denied by gateway",
			status: StatusSuccessful,
			gw:     stubVerifier{res: confirmedResponse("pending")},
			want:   false,
		},
		{
			name:   "verification error counts as not confirmed",
			status: StatusSuccessful,
			gw:     stubVerifier{err: errors.New("gateway unreachable")},
			want:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &Service{log: zap.NewNop().Sugar(), gw: tc.gw}
			got := svc.confirm(context.Background(), &Callback{TxRef: "tx-1", Status: tc.status}, "sk-test")
			require.Equal(t, tc.want, got)
		})
	}
}
