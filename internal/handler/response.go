package handler

import "github.com/gin-gonic/gin"

// successResponse единый формат успешного ответа API
func successResponse(data interface{}) gin.H {
	return gin.H{
		"success": true,
		"data":    data,
	}
}

// errorResponse единый формат ответа с ошибкой
func errorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"message": message,
	}
}
