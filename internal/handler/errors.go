package handler

import (
	"errors"
	"net/http"

	"github.com/blues/crowdfund/internal/campaign"
	"github.com/blues/crowdfund/internal/host"
	"github.com/blues/crowdfund/internal/repository"
)

// statusCode 将业务错误映射为 HTTP 状态码
func statusCode(err error) int {
	switch {
	case errors.Is(err, campaign.ErrInvalidTarget),
		errors.Is(err, campaign.ErrInvalidDeadline),
		errors.Is(err, campaign.ErrInvalidCap),
		errors.Is(err, host.ErrNoPayment),
		errors.Is(err, host.ErrInvalidAmount),
		errors.Is(err, repository.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, campaign.ErrUnauthorized),
		errors.Is(err, host.ErrContractAccount):
		return http.StatusForbidden
	case errors.Is(err, campaign.ErrCampaignClosed),
		errors.Is(err, campaign.ErrWalletCapExceeded),
		errors.Is(err, campaign.ErrTooEarly),
		errors.Is(err, host.ErrAlreadyDeployed):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, host.ErrNotDeployed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
