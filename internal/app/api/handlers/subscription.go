package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/tiyeni/coachpay/internal/app/api/middleware"
	subsvc "github.com/tiyeni/coachpay/internal/app/service/subscription"
	"github.com/tiyeni/coachpay/pkg/response"
	"github.com/tiyeni/coachpay/pkg/types"
)

type startSubscriptionRequest struct {
	Tier  types.SubscriptionTier `json:"tier"`
	Cycle types.BillingCycle     `json:"billing_cycle"`
}

// @Summary      Start trial
// @Description  Starts a trial subscription for the authenticated coach.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body startSubscriptionRequest true "Tier and billing cycle"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/trial [post]
func ApiStartTrial(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		sub, err := svc.StartTrial(c.Request.Context(), mw.CallerID(c), req.Tier, req.Cycle)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](subscriptionErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Select plan
// @Description  Creates a paid subscription awaiting first payment.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body startSubscriptionRequest true "Tier and billing cycle"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/select [post]
func ApiSelectPlan(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		sub, err := svc.SelectPlan(c.Request.Context(), mw.CallerID(c), req.Tier, req.Cycle)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](subscriptionErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

// @Summary      Manage subscription
// @Description  Applies an upgrade, downgrade, cancel or reactivate action to the caller's subscription.
// @Tags         Subscription
// @Accept       json
// @Produce      json
// @Param        request body subscription.ManageRequest true "Management action"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/manage [post]
func ApiManageSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subsvc.ManageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.Manage(c.Request.Context(), mw.CallerID(c), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](subscriptionErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Current subscription
// @Description  Returns the caller's billable subscription.
// @Tags         Subscription
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/current [get]
func ApiCurrentSubscription(svc *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := svc.GetCurrent(c.Request.Context(), mw.CallerID(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](subscriptionErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(sub))
	}
}

func subscriptionErrCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, subsvc.ErrNoActiveSubscription),
		errors.Is(err, subsvc.ErrAlreadySubscribed),
		errors.Is(err, subsvc.ErrPlanNotFound),
		errors.Is(err, subsvc.ErrInvalidAction),
		errors.Is(err, subsvc.ErrInvalidEffectiveDate),
		errors.Is(err, subsvc.ErrNotCanceled):
		return response.APIResponseCodeBadRequest
	default:
		return response.APIResponseCodeError
	}
}

func RegisterSubscriptionRoutes(r gin.IRouter, svc *subsvc.Service) {
	r.POST("/subscriptions/trial", ApiStartTrial(svc))
	r.POST("/subscriptions/select", ApiSelectPlan(svc))
	r.POST("/subscriptions/manage", ApiManageSubscription(svc))
	r.GET("/subscriptions/current", ApiCurrentSubscription(svc))
}
