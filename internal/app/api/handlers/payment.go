package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	mw "github.com/tiyeni/coachpay/internal/app/api/middleware"
	paysvc "github.com/tiyeni/coachpay/internal/app/service/payment"
	subsvc "github.com/tiyeni/coachpay/internal/app/service/subscription"
	"github.com/tiyeni/coachpay/internal/platform/paychangu"
	"github.com/tiyeni/coachpay/pkg/response"
)

// @Summary      Initiate subscription payment
// @Description  Creates a pending billing entry and returns the gateway checkout URL.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body payment.Contact true "Payer contact"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/initiate [post]
func ApiInitiatePayment(svc *paysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var contact paysvc.Contact
		if err := c.ShouldBindJSON(&contact); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.InitiateSubscriptionPayment(c.Request.Context(), mw.CallerID(c), &contact)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](paymentErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type retryPaymentRequest struct {
	BillingID string `json:"billing_id"`
	paysvc.Contact
}

// @Summary      Retry payment
// @Description  Re-attempts a failed billing entry, bounded by the retry ceiling.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body retryPaymentRequest true "Billing id and payer contact"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/retry [post]
func ApiRetryPayment(svc *paysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req retryPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Retry(c.Request.Context(), mw.CallerID(c), req.BillingID, &req.Contact)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](paymentErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Course checkout
// @Description  Starts a one-off course payment routed through the coach's own gateway account.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body payment.CourseCheckoutRequest true "Course checkout request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/payments/course [post]
func ApiCourseCheckout(svc *paysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paysvc.CourseCheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.InitiateCoursePayment(c.Request.Context(), mw.CallerID(c), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](paymentErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Billing history
// @Description  Returns the caller's billing ledger, newest first.
// @Tags         Payment
// @Produce      json
// @Param        from  query  int  false  "Offset"
// @Param        size  query  int  false  "Page size"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/billing/history [get]
func ApiBillingHistory(svc *paysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from := 0
		if v := c.Query("from"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				from = n
			}
		}
		size := 20
		if v := c.Query("size"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
			size = n
		}
		rows, err := svc.ListBillingHistory(c.Request.Context(), mw.CallerID(c), from, size)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

func paymentErrCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, paysvc.ErrNotOwner):
		return response.APIResponseCodeForbidden
	case errors.Is(err, paysvc.ErrAlreadyPaid),
		errors.Is(err, paysvc.ErrRetryLimitExceeded),
		errors.Is(err, paysvc.ErrIntegrationOff),
		errors.Is(err, paysvc.ErrBillingNotFound),
		errors.Is(err, subsvc.ErrNoActiveSubscription),
		errors.Is(err, paychangu.ErrGatewayRejected):
		return response.APIResponseCodeBadRequest
	default:
		return response.APIResponseCodeError
	}
}

func RegisterPaymentRoutes(r gin.IRouter, svc *paysvc.Service) {
	r.POST("/payments/initiate", ApiInitiatePayment(svc))
	r.POST("/payments/retry", ApiRetryPayment(svc))
	r.POST("/payments/course", ApiCourseCheckout(svc))
	r.GET("/billing/history", ApiBillingHistory(svc))
}
