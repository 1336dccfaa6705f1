package campaign

import "math/big"

// Status 众筹阶段（派生值，不落库）
type Status uint8

const (
	FundingPeriod Status = iota // 募资中
	Successful                  // 成功
	Failed                      // 失败
)

// String 返回阶段名称
func (s Status) String() string {
	switch s {
	case FundingPeriod:
		return "FundingPeriod"
	case Successful:
		return "Successful"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DeriveStatus 根据当前时间、截止时间、当前资金和目标金额计算阶段
//
// 截止时刻本身仍属于募资期（now == deadline 返回 FundingPeriod），
// 资金恰好等于目标金额视为成功。
func DeriveStatus(now, deadline uint64, currentFunds, target *big.Int) Status {
	if now <= deadline {
		return FundingPeriod
	}
	if currentFunds.Cmp(target) >= 0 {
		return Successful
	}
	return Failed
}
