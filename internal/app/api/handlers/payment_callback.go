package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	settlesvc "github.com/tiyeni/coachpay/internal/app/service/settlement"
	"github.com/tiyeni/coachpay/pkg/logctx"
	"github.com/tiyeni/coachpay/pkg/response"
)

// @Summary      PayChangu callback
// @Description  Handles the gateway's asynchronous payment-result notification. The body must carry a valid Signature header.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body settlement.Callback true "Callback payload"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/callback [post]
func ApiPaymentCallback(svc *settlesvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		logctx.FromGin(c, svc.Logger()).Infow("paychangu_callback_received")

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "failed to read body"))
			return
		}
		if !svc.VerifySignature(body, c.GetHeader("Signature")) {
			logctx.FromGin(c, svc.Logger()).Warnw("paychangu_callback_bad_signature")
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, settlesvc.ErrBadSignature.Error()))
			return
		}

		var cb settlesvc.Callback
		if err := json.Unmarshal(body, &cb); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid callback payload"))
			return
		}

		traceID := c.GetString("traceID")
		if err := svc.HandleCallback(c.Request.Context(), traceID, &cb); err != nil {
			logctx.FromGin(c, svc.Logger()).Errorw("paychangu_callback_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		logctx.FromGin(c, svc.Logger()).Infow("paychangu_callback_handled", "tx_ref", cb.TxRef)
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterCallbackRoutes(r gin.IRouter, svc *settlesvc.Service) {
	r.POST("/payments/callback", ApiPaymentCallback(svc))
}
