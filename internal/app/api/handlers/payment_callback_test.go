package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	settlesvc "github.com/tiyeni/coachpay/internal/app/service/settlement"
	"github.com/tiyeni/coachpay/pkg/config"
)

func newCallbackRouter(webhookSecret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{PayChangu: config.PayChanguConfig{WebhookSecret: webhookSecret}}
	svc := settlesvc.NewService(cfg, nil, zap.NewNop().Sugar(), nil, nil)
	r := gin.New()
	RegisterCallbackRoutes(r.Group("/api/v1"), svc)
	return r
}

func TestApiPaymentCallback_RejectsMissingSignature(t *testing.T) {
	r := newCallbackRouter("whsec-1")

	body := []byte(`{"tx_ref":"sub_1_1700000000000","status":"successful"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApiPaymentCallback_RejectsBadSignature(t *testing.T) {
	r := newCallbackRouter("whsec-1")

	body := []byte(`{"tx_ref":"sub_1_1700000000000","status":"successful"}`)
	mac := hmac.New(sha256.New, []byte("wrong-secret"))
	mac.Write(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", bytes.NewReader(body))
	req.Header.Set("Signature", hex.EncodeToString(mac.Sum(nil)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
