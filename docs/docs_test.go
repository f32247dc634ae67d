package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwaggerDocCoversAllRoutes(t *testing.T) {
	var doc struct {
		Paths       map[string]json.RawMessage `json:"paths"`
		Definitions map[string]json.RawMessage `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc))

	wantPaths := []string{
		"/healthz",
		"/api/v1/subscriptions/trial",
		"/api/v1/subscriptions/select",
		"/api/v1/subscriptions/manage",
		"/api/v1/subscriptions/current",
		"/api/v1/payments/initiate",
		"/api/v1/payments/retry",
		"/api/v1/payments/course",
		"/api/v1/payments/callback",
		"/api/v1/billing/history",
		"/api/v1/admin/billing/scan",
		"/api/v1/admin/subscriptions/scan",
		"/api/v1/admin/statistics",
	}
	for _, p := range wantPaths {
		require.Contains(t, doc.Paths, p)
	}
	require.Len(t, doc.Paths, len(wantPaths))

	for _, d := range []string{
		"handlers.RespOK",
		"subscription.ManageRequest",
		"payment.Contact",
		"settlement.Callback",
		"types.CommonFilter",
	} {
		require.Contains(t, doc.Definitions, d)
	}
}
