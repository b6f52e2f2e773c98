package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserNotFound = 10002
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 餐券模块错误 200xx
	ErrCouponNotFound          = 20001
	ErrCouponIllegalTransition = 20002
	ErrCouponExists            = 20003
	ErrCouponConcurrentUpdate  = 20004

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
