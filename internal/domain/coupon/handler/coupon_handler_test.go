package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"meal_coupon/internal/domain/coupon/model"
	"meal_coupon/internal/domain/coupon/service"
	"meal_coupon/internal/pkg/middleware"
	"meal_coupon/pkg/response"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCouponService is a mock of CouponService
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) CreateCoupon(ctx context.Context, in service.CreateCouponInput) (*model.Coupon, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponService) ListForUnit(ctx context.Context, unitNumber string) ([]*model.Coupon, error) {
	args := m.Called(ctx, unitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Coupon), args.Error(1)
}

func (m *MockCouponService) ReconcileForUnit(ctx context.Context, unitNumber string) (*service.ReconcileResult, error) {
	args := m.Called(ctx, unitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileResult), args.Error(1)
}

func (m *MockCouponService) ReconcileForEventSubEvent(ctx context.Context, unitNumber string, event model.Event, subEvent model.SubEvent) (*service.ReconcileResult, error) {
	args := m.Called(ctx, unitNumber, event, subEvent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileResult), args.Error(1)
}

func (m *MockCouponService) RedeemOne(ctx context.Context, couponID string, mode model.RedeemStatus, actor string) (*model.Coupon, error) {
	args := m.Called(ctx, couponID, mode, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponService) RedeemMany(ctx context.Context, couponIDs []string, mode model.RedeemStatus, actor string) (*service.RedeemResult, error) {
	args := m.Called(ctx, couponIDs, mode, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RedeemResult), args.Error(1)
}

func (m *MockCouponService) RedeemAllActive(ctx context.Context, unitNumber string, mode model.RedeemStatus, actor string, subEvent model.SubEvent) (*service.RedeemResult, error) {
	args := m.Called(ctx, unitNumber, mode, actor, subEvent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RedeemResult), args.Error(1)
}

func (m *MockCouponService) TakeAwayAction(ctx context.Context, couponID string, action model.TakeAwayAction, actor string) (*model.Coupon, error) {
	args := m.Called(ctx, couponID, action, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponService) Dashboard(ctx context.Context, unitNumber string) (service.Dashboard, error) {
	args := m.Called(ctx, unitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(service.Dashboard), args.Error(1)
}

func (m *MockCouponService) EODReport(ctx context.Context, event model.Event, unitNumber string) (service.EODReport, error) {
	args := m.Called(ctx, event, unitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(service.EODReport), args.Error(1)
}

func (m *MockCouponService) ListDistinctUnits(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestRouter 用固定身份代替 JWT 认证
func newTestRouter(svc service.CouponService, userID string, role int) *gin.Engine {
	h := NewCouponHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	})
	r.POST("/coupons", h.CreateCoupon)
	r.POST("/coupons/redeem", h.RedeemOne)
	r.POST("/coupons/redeem/batch", h.RedeemMany)
	r.POST("/coupons/redeem/all", h.RedeemAllActive)
	r.POST("/coupons/:id/take-away", h.TakeAwayAction)
	r.POST("/coupons/reconcile", h.ReconcileForUnit)
	r.GET("/coupons/report/eod/:event", h.EODReport)
	r.GET("/coupons/units", h.ListDistinctUnits)
	return r
}

func perform(r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestRedeemOneHandler(t *testing.T) {
	t.Run("actor falls back to token user", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "counter-7", 1)
		coupon := &model.Coupon{Status: model.StatusRedeemed, RedeemStatus: model.RedeemDineIn}
		svc.On("RedeemOne", mock.Anything, "c1", model.RedeemDineIn, "counter-7").Return(coupon, nil)

		w, resp := perform(r, http.MethodPost, "/coupons/redeem", gin.H{"couponId": "c1", "mode": "DINE-IN"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, response.CodeSuccess, resp.Code)
		svc.AssertExpectations(t)
	})

	t.Run("explicit updatedBy wins", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "counter-7", 1)
		svc.On("RedeemOne", mock.Anything, "c1", model.RedeemTakeAway, "gate-2").Return(&model.Coupon{}, nil)

		w, _ := perform(r, http.MethodPost, "/coupons/redeem", gin.H{"couponId": "c1", "mode": "TAKE-AWAY", "updatedBy": "gate-2"})

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("rejection carries reason", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   int
		}{
			{model.ErrExpired, http.StatusConflict, response.ErrCouponIllegalTransition},
			{model.ErrAlreadyRedeemed, http.StatusConflict, response.ErrCouponIllegalTransition},
			{model.ErrConcurrentUpdate, http.StatusConflict, response.ErrCouponConcurrentUpdate},
			{model.ErrInvalidMode, http.StatusBadRequest, response.ErrInvalidParam},
			{model.ErrCouponNotFound, http.StatusNotFound, response.ErrCouponNotFound},
		}
		for _, tc := range cases {
			svc := new(MockCouponService)
			r := newTestRouter(svc, "counter-7", 1)
			svc.On("RedeemOne", mock.Anything, "c1", mock.Anything, mock.Anything).Return(nil, tc.err)

			w, resp := perform(r, http.MethodPost, "/coupons/redeem", gin.H{"couponId": "c1", "mode": "DINE-IN"})

			assert.Equal(t, tc.status, w.Code, model.ReasonOf(tc.err))
			assert.Equal(t, tc.code, resp.Code)
			assert.Equal(t, model.ReasonOf(tc.err), resp.Reason)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "counter-7", 1)

		w, resp := perform(r, http.MethodPost, "/coupons/redeem", gin.H{"mode": "DINE-IN"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid-input", resp.Reason)
		svc.AssertNotCalled(t, "RedeemOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure hides details", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "counter-7", 1)
		svc.On("RedeemOne", mock.Anything, "c1", mock.Anything, mock.Anything).
			Return(nil, model.Persistence("save coupon", assert.AnError))

		w, resp := perform(r, http.MethodPost, "/coupons/redeem", gin.H{"couponId": "c1", "mode": "DINE-IN"})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, response.ErrServerInternal, resp.Code)
		assert.NotContains(t, resp.Message, assert.AnError.Error())
	})
}

func TestRedeemBatchHandlers(t *testing.T) {
	svc := new(MockCouponService)
	r := newTestRouter(svc, "counter-7", 1)

	result := &service.RedeemResult{
		Redeemed:     []*model.Coupon{{Status: model.StatusRedeemed}},
		Skipped:      []service.SkippedCoupon{{ID: "c2", Reason: "expired"}},
		SkippedCount: 1,
	}
	svc.On("RedeemMany", mock.Anything, []string{"c1", "c2"}, model.RedeemDineIn, "counter-7").Return(result, nil)
	svc.On("RedeemAllActive", mock.Anything, "A-101", model.RedeemStatus(""), "counter-7", model.SubEventLunch).
		Return(nil, model.ErrNoActiveCoupons)
	svc.On("RedeemMany", mock.Anything, []string(nil), model.RedeemDineIn, "counter-7").Return(nil, model.ErrEmptySelector)

	w, resp := perform(r, http.MethodPost, "/coupons/redeem/batch", gin.H{"couponIds": []string{"c1", "c2"}, "mode": "DINE-IN"})
	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["skippedCount"])

	w, resp = perform(r, http.MethodPost, "/coupons/redeem/batch", gin.H{"mode": "DINE-IN"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty-selector", resp.Reason)

	w, resp = perform(r, http.MethodPost, "/coupons/redeem/all", gin.H{"unitNumber": "A-101", "subEvent": "LUNCH"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no-active-coupons", resp.Reason)
}

func TestTakeAwayHandler(t *testing.T) {
	t.Run("approve requires operator", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "user-1", 1)

		w, _ := perform(r, http.MethodPost, "/coupons/c1/take-away", gin.H{"action": "approve"})

		assert.Equal(t, http.StatusForbidden, w.Code)
		svc.AssertNotCalled(t, "TakeAwayAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("request is open to counters", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "user-1", 1)
		svc.On("TakeAwayAction", mock.Anything, "c1", model.TakeAwayRequest, "user-1").
			Return(&model.Coupon{TakeAwayStatus: model.TakeAwayPending}, nil)

		w, _ := perform(r, http.MethodPost, "/coupons/c1/take-away", gin.H{"action": "request"})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("operator approve on wrong state", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "op-1", 2)
		svc.On("TakeAwayAction", mock.Anything, "c1", model.TakeAwayApprove, "op-1").
			Return(nil, model.ErrWrongTakeAwayState)

		w, resp := perform(r, http.MethodPost, "/coupons/c1/take-away", gin.H{"action": "approve"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "wrong-take-away-state", resp.Reason)
	})
}

func TestReportHandlers(t *testing.T) {
	svc := new(MockCouponService)
	r := newTestRouter(svc, "op-1", 2)

	svc.On("EODReport", mock.Anything, model.EventSaptami, "A-101").Return(service.EODReport{
		model.SubEventBreakfast: {DineIn: 2, Expired: 1},
	}, nil)
	svc.On("ListDistinctUnits", mock.Anything).Return([]string{"A-101", "B-202"}, nil)
	svc.On("ReconcileForUnit", mock.Anything, "A-101").Return(&service.ReconcileResult{Checked: 4, Updated: 2}, nil)

	w, resp := perform(r, http.MethodGet, "/coupons/report/eod/SAPTAMI?unitNumber=A-101", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	breakfast := data["report"].(map[string]interface{})["BREAKFAST"].(map[string]interface{})
	assert.EqualValues(t, 2, breakfast["dineIn"])
	assert.EqualValues(t, 0, breakfast["takeAway"])
	assert.EqualValues(t, 1, breakfast["expired"])

	w, resp = perform(r, http.MethodGet, "/coupons/units", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"A-101", "B-202"}, resp.Data)

	w, resp = perform(r, http.MethodPost, "/coupons/reconcile", gin.H{"unitNumber": "A-101"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp.Data.(map[string]interface{})["updated"])
}

func TestCreateCouponHandler(t *testing.T) {
	body := gin.H{
		"nomenclature":   "SAPTAMI-BREAKFAST-A101-1",
		"ownerId":        "6f1c2a8e-0b7d-4a53-9a55-2c1f9e0d7b11",
		"subscriptionId": "sub-1",
		"event":          "SAPTAMI",
		"subEvent":       "BREAKFAST",
		"mealType":       "Veg",
		"validFrom":      "2026-10-18T07:00:00+05:30",
		"validTo":        "2026-10-18T10:00:00+05:30",
	}
	byNomenclature := mock.MatchedBy(func(in service.CreateCouponInput) bool {
		return in.Nomenclature == "SAPTAMI-BREAKFAST-A101-1" && in.CreatedBy == "op-1"
	})

	t.Run("created", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "op-1", 2)
		svc.On("CreateCoupon", mock.Anything, byNomenclature).
			Return(&model.Coupon{Nomenclature: "SAPTAMI-BREAKFAST-A101-1", UnitNumber: "A-101"}, nil)

		w, resp := perform(r, http.MethodPost, "/coupons", body)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, response.CodeSuccess, resp.Code)
		assert.Equal(t, "A-101", resp.Data.(map[string]interface{})["unitNumber"])
		svc.AssertExpectations(t)
	})

	t.Run("duplicate nomenclature", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "op-1", 2)
		svc.On("CreateCoupon", mock.Anything, byNomenclature).Return(nil, model.ErrCouponExists)

		w, resp := perform(r, http.MethodPost, "/coupons", body)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, response.ErrCouponExists, resp.Code)
		assert.Equal(t, "coupon-exists", resp.Reason)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockCouponService)
		r := newTestRouter(svc, "op-1", 2)

		w, _ := perform(r, http.MethodPost, "/coupons", gin.H{"validFrom": "tomorrow"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "CreateCoupon", mock.Anything, mock.Anything)
	})
}
