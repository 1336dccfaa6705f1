package handler

import (
	"net/http"

	"github.com/blues/crowdfund/internal/host"
	"github.com/gin-gonic/gin"
)

// AccountHandler 宿主账本处理器
type AccountHandler struct {
	runtime *host.Runtime
}

// NewAccountHandler 创建宿主账本处理器
func NewAccountHandler(runtime *host.Runtime) *AccountHandler {
	return &AccountHandler{runtime: runtime}
}

// GetBalance 获取账户余额
func (h *AccountHandler) GetBalance(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.runtime.BalanceOf(c.Request.Context(), addr)
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取余额成功", gin.H{
		"address": addr.Hex(),
		"balance": balance.String(),
	})
}

// Transfer 普通转账，可直接向合约地址转入而不经过 Fund
func (h *AccountHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.runtime.Send(c.Request.Context(), from, to, amount); err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "转账成功", gin.H{
		"from":   from.Hex(),
		"to":     to.Hex(),
		"amount": amount.String(),
	})
}
