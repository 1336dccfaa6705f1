package handler

import (
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应，data 固定为 null
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// abortWithError 按业务错误选择状态码，原因原样返回给调用方
func abortWithError(c *gin.Context, err error) {
	ErrorResponse(c, statusCode(err), err.Error())
}
