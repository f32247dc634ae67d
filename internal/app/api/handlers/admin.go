package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paysvc "github.com/tiyeni/coachpay/internal/app/service/payment"
	"github.com/tiyeni/coachpay/internal/app/service/statistics"
	subsvc "github.com/tiyeni/coachpay/internal/app/service/subscription"
	"github.com/tiyeni/coachpay/pkg/response"
)

// @Summary      Scan billing entries
// @Description  Paginated, filtered listing of the billing ledger.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body payment.ScanBillingRequest true "Filters and pagination"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/billing/scan [post]
func ApiScanBilling(svc *paysvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paysvc.ScanBillingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanBilling(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Scan subscriptions
// @Description  Paginated, filtered listing of subscriptions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body subscription.ScanSubscriptionsRequest true "Filters and pagination"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/subscriptions/scan [post]
func ApiScanSubscriptions(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subsvc.ScanSubscriptionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanSubscriptions(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Statistics
// @Description  Computes subscription and revenue statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.Request true "Statistics request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/statistics [post]
func ApiStatistics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Query(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, pay *paysvc.Service, sub *subsvc.Service, stats *statistics.Service) {
	r.POST("/billing/scan", ApiScanBilling(pay))
	r.POST("/subscriptions/scan", ApiScanSubscriptions(sub))
	r.POST("/statistics", ApiStatistics(stats))
}
