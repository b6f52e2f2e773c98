package handler

import (
	"meal_coupon/internal/domain/coupon/model"
	"meal_coupon/internal/domain/coupon/service"
	"meal_coupon/internal/pkg/middleware"
	"meal_coupon/pkg/logger"
	"meal_coupon/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(service service.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

type UnitInput struct {
	UnitNumber string `json:"unitNumber" binding:"required"`
}

type ReconcileEventInput struct {
	UnitNumber string         `json:"unitNumber" binding:"required"`
	Event      model.Event    `json:"event" binding:"required"`
	SubEvent   model.SubEvent `json:"subEvent" binding:"required"`
}

type RedeemInput struct {
	CouponID  string             `json:"couponId" binding:"required"`
	Mode      model.RedeemStatus `json:"mode" binding:"required"`
	UpdatedBy string             `json:"updatedBy"`
}

// RedeemBatchInput 空列表交给业务层返回 empty-selector
type RedeemBatchInput struct {
	CouponIDs []string           `json:"couponIds"`
	Mode      model.RedeemStatus `json:"mode" binding:"required"`
	UpdatedBy string             `json:"updatedBy"`
}

type RedeemAllInput struct {
	UnitNumber string             `json:"unitNumber" binding:"required"`
	Mode       model.RedeemStatus `json:"mode"`
	SubEvent   model.SubEvent     `json:"subEvent"`
	UpdatedBy  string             `json:"updatedBy"`
}

type TakeAwayInput struct {
	Action    model.TakeAwayAction `json:"action" binding:"required"`
	UpdatedBy string               `json:"updatedBy"`
}

// actor 未显式传入操作人时使用当前登录用户
func actor(c *gin.Context, updatedBy string) string {
	if updatedBy != "" {
		return updatedBy
	}
	return middleware.CurrentUserID(c)
}

func badRequest(c *gin.Context, err error) {
	response.Reject(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid-input", err.Error())
}

// fail 按错误分类映射 HTTP 状态码，业务拒绝时带上规则标识
func fail(c *gin.Context, err error) {
	reason := model.ReasonOf(err)
	switch model.KindOf(err) {
	case model.KindValidation:
		response.Reject(c, http.StatusBadRequest, response.ErrInvalidParam, reason, err.Error())
	case model.KindNotFound:
		code := response.ErrCouponNotFound
		if reason == model.ErrUserNotFound.Reason {
			code = response.ErrUserNotFound
		}
		response.Reject(c, http.StatusNotFound, code, reason, err.Error())
	case model.KindIllegalTransition:
		switch reason {
		case model.ErrInvalidMode.Reason:
			response.Reject(c, http.StatusBadRequest, response.ErrInvalidParam, reason, err.Error())
		case model.ErrConcurrentUpdate.Reason:
			response.Reject(c, http.StatusConflict, response.ErrCouponConcurrentUpdate, reason, err.Error())
		default:
			response.Reject(c, http.StatusConflict, response.ErrCouponIllegalTransition, reason, err.Error())
		}
	case model.KindConflict:
		response.Reject(c, http.StatusConflict, response.ErrCouponExists, reason, err.Error())
	default:
		logger.L().Error("coupon request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal server error")
	}
}

// CreateCoupon 运营人员发券
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var input service.CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	input.CreatedBy = actor(c, input.CreatedBy)

	coupon, err := h.service.CreateCoupon(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}

	response.Created(c, coupon)
}

// ListForUnit 查询住户的全部餐券
func (h *CouponHandler) ListForUnit(c *gin.Context) {
	unit := c.Param("unit")

	coupons, err := h.service.ListForUnit(c.Request.Context(), unit)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"unitNumber":   unit,
		"totalCoupons": len(coupons),
		"coupons":      coupons,
	})
}

func (h *CouponHandler) ReconcileForUnit(c *gin.Context) {
	var input UnitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.ReconcileForUnit(c.Request.Context(), input.UnitNumber)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CouponHandler) ReconcileForEventSubEvent(c *gin.Context) {
	var input ReconcileEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.ReconcileForEventSubEvent(c.Request.Context(), input.UnitNumber, input.Event, input.SubEvent)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CouponHandler) RedeemOne(c *gin.Context) {
	var input RedeemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	coupon, err := h.service.RedeemOne(c.Request.Context(), input.CouponID, input.Mode, actor(c, input.UpdatedBy))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, coupon)
}

func (h *CouponHandler) RedeemMany(c *gin.Context) {
	var input RedeemBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.RedeemMany(c.Request.Context(), input.CouponIDs, input.Mode, actor(c, input.UpdatedBy))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

func (h *CouponHandler) RedeemAllActive(c *gin.Context) {
	var input RedeemAllInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.service.RedeemAllActive(c.Request.Context(), input.UnitNumber, input.Mode, actor(c, input.UpdatedBy), input.SubEvent)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}

// TakeAwayAction approve/reject 路由额外挂了运营权限
func (h *CouponHandler) TakeAwayAction(c *gin.Context) {
	var input TakeAwayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if input.Action != model.TakeAwayRequest && !middleware.IsOperator(c) {
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Operator permission required")
		return
	}

	coupon, err := h.service.TakeAwayAction(c.Request.Context(), c.Param("id"), input.Action, actor(c, input.UpdatedBy))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, coupon)
}

func (h *CouponHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.Dashboard(c.Request.Context(), c.Param("unit"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, dashboard)
}

func (h *CouponHandler) EODReport(c *gin.Context) {
	event := model.Event(c.Param("event"))

	report, err := h.service.EODReport(c.Request.Context(), event, c.Query("unitNumber"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"event":  event,
		"report": report,
	})
}

func (h *CouponHandler) ListDistinctUnits(c *gin.Context) {
	units, err := h.service.ListDistinctUnits(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, units)
}
