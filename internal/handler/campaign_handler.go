package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/crowdfund/internal/host"
	"github.com/blues/crowdfund/internal/logic"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 合约调用处理器
type CampaignHandler struct {
	runtime    *host.Runtime
	eventLogic *logic.EventLogic
}

// NewCampaignHandler 创建合约调用处理器
func NewCampaignHandler(runtime *host.Runtime, eventLogic *logic.EventLogic) *CampaignHandler {
	return &CampaignHandler{
		runtime:    runtime,
		eventLogic: eventLogic,
	}
}

// GetCampaign 获取合约概览
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	info, err := h.runtime.Info(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取合约信息成功", ToCampaignResponse(info))
}

// GetStatus 获取当前阶段
func (h *CampaignHandler) GetStatus(c *gin.Context) {
	status, err := h.runtime.Status(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取阶段成功", gin.H{"status": status.String()})
}

// GetCurrentFunds 获取合约余额
func (h *CampaignHandler) GetCurrentFunds(c *gin.Context) {
	funds, err := h.runtime.CurrentFunds(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取合约余额成功", gin.H{"currentFunds": funds.String()})
}

// GetTarget 获取目标金额
func (h *CampaignHandler) GetTarget(c *gin.Context) {
	target, err := h.runtime.Target(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取目标金额成功", gin.H{"target": target.String()})
}

// GetDeadline 获取截止时间
func (h *CampaignHandler) GetDeadline(c *gin.Context) {
	deadline, err := h.runtime.Deadline(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取截止时间成功", gin.H{"deadline": deadline})
}

// GetDeposit 获取贡献者存款
func (h *CampaignHandler) GetDeposit(c *gin.Context) {
	addr, err := parseAddress("address", c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	deposit, err := h.runtime.Deposit(c.Request.Context(), addr)
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取存款成功", gin.H{
		"address": addr.Hex(),
		"deposit": deposit.String(),
	})
}

// GetMaxPerWallet 获取钱包上限，未设置时为 null
func (h *CampaignHandler) GetMaxPerWallet(c *gin.Context) {
	max, err := h.runtime.MaxPerWallet(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "获取钱包上限成功", gin.H{"maxPerWallet": optionalAmount(max)})
}

// SetMaxPerWallet 设置钱包上限
func (h *CampaignHandler) SetMaxPerWallet(c *gin.Context) {
	var req SetMaxPerWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	max, err := parseAmount("max", req.Max)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.runtime.SetMaxPerWallet(c.Request.Context(), caller, max); err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "钱包上限设置成功", gin.H{"maxPerWallet": max.String()})
}

// Fund 贡献
func (h *CampaignHandler) Fund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	deposit, err := h.runtime.Fund(c.Request.Context(), caller, amount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "贡献成功", gin.H{
		"address": caller.Hex(),
		"deposit": deposit.String(),
	})
}

// Claim 结算
func (h *CampaignHandler) Claim(c *gin.Context) {
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress("caller", req.Caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	settlement, err := h.runtime.Claim(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "结算成功", ToSettlementResponse(settlement))
}

// GetEvents 获取事件列表
func (h *CampaignHandler) GetEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	events, total, err := h.eventLogic.GetEvents(c.Request.Context(), c.Query("type"), page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", GetEventsResponse{
		Events:     ToEventResponseList(events),
		Pagination: pagination,
	})
}

// GetStats 获取贡献统计信息
func (h *CampaignHandler) GetStats(c *gin.Context) {
	stats, err := h.eventLogic.GetContributeStats(c.Request.Context())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "获取贡献统计信息成功", ToContributeStatsResponse(stats))
}
