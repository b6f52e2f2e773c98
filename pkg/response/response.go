package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`             // 业务码
	Message string      `json:"message"`          // 提示信息
	Reason  string      `json:"reason,omitempty"` // 失败时命中的规则
	Data    interface{} `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: "created",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Reject 业务规则拒绝，携带规则标识
func Reject(c *gin.Context, httpCode int, errCode int, reason, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Reason:  reason,
		Data:    nil,
	})
}
