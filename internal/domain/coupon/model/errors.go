package model

import "errors"

// ErrorKind 错误分类
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindNotFound
	KindIllegalTransition
	KindConflict
	KindPersistence
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not-found"
	case KindIllegalTransition:
		return "illegal-transition"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	}
	return "unknown"
}

// CouponError 携带命中规则标识（Reason）的业务错误
type CouponError struct {
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
}

func (e *CouponError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CouponError) Unwrap() error {
	return e.Err
}

// Is 同类同规则即视为相等，便于对包装后的错误使用 errors.Is
func (e *CouponError) Is(target error) bool {
	t, ok := target.(*CouponError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

var (
	ErrInvalidMode        = &CouponError{Kind: KindIllegalTransition, Reason: "invalid-mode", Message: "invalid dine mode, must be DINE-IN or TAKE-AWAY"}
	ErrExpired            = &CouponError{Kind: KindIllegalTransition, Reason: "expired", Message: "coupon is expired and cannot be redeemed"}
	ErrNotYetValid        = &CouponError{Kind: KindIllegalTransition, Reason: "not-yet-valid", Message: "coupon is not valid yet"}
	ErrAlreadyRedeemed    = &CouponError{Kind: KindIllegalTransition, Reason: "already-redeemed", Message: "coupon already redeemed with this mode"}
	ErrWrongRedeemMode    = &CouponError{Kind: KindIllegalTransition, Reason: "wrong-redeem-mode", Message: "take-away request needs a TAKE-AWAY redemption"}
	ErrWrongTakeAwayState = &CouponError{Kind: KindIllegalTransition, Reason: "wrong-take-away-state", Message: "take-away action not allowed in current state"}
	ErrConcurrentUpdate   = &CouponError{Kind: KindIllegalTransition, Reason: "concurrent-update", Message: "coupon was modified by another request"}
	ErrInvalidAction      = &CouponError{Kind: KindValidation, Reason: "invalid-action", Message: "take-away action must be request, approve or reject"}
	ErrEmptySelector      = &CouponError{Kind: KindValidation, Reason: "empty-selector", Message: "no coupon ids given"}
	ErrInvalidEvent       = &CouponError{Kind: KindValidation, Reason: "invalid-event", Message: "unknown event or sub-event"}
	ErrInvalidWindow      = &CouponError{Kind: KindValidation, Reason: "invalid-window", Message: "validFrom must not be after validTo"}
	ErrWrongSessionYear   = &CouponError{Kind: KindValidation, Reason: "wrong-session-year", Message: "sessionYear must be the current session year"}
	ErrInvariant          = &CouponError{Kind: KindUnknown, Reason: "invariant-violated", Message: "coupon state invariant violated"}
	ErrCouponNotFound     = &CouponError{Kind: KindNotFound, Reason: "coupon-not-found", Message: "coupon not found"}
	ErrUserNotFound       = &CouponError{Kind: KindNotFound, Reason: "user-not-found", Message: "user not found"}
	ErrNoActiveCoupons    = &CouponError{Kind: KindNotFound, Reason: "no-active-coupons", Message: "no active coupons found"}
	ErrCouponExists       = &CouponError{Kind: KindConflict, Reason: "coupon-exists", Message: "coupon nomenclature already exists"}
	ErrPersistence        = &CouponError{Kind: KindPersistence, Reason: "persistence", Message: "storage failure"}
)

// Validation 构造带具体描述的校验错误
func Validation(reason, msg string) error {
	return &CouponError{Kind: KindValidation, Reason: reason, Message: msg}
}

// Persistence 包装存储层错误，始终向上抛出
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CouponError
	if errors.As(err, &ce) {
		return err
	}
	return &CouponError{Kind: KindPersistence, Reason: ErrPersistence.Reason, Message: op, Err: err}
}

// KindOf 返回错误分类，非业务错误归为 Unknown
func KindOf(err error) ErrorKind {
	var ce *CouponError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// ReasonOf 返回错误命中的规则标识
func ReasonOf(err error) string {
	var ce *CouponError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}
