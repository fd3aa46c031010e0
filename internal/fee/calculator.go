package fee

import (
	"github.com/shopspring/decimal"
)

// DefaultFeePercent 无参考预算时的默认费率
const DefaultFeePercent = 5

// Breakdown 服务费计算结果
type Breakdown struct {
	FeePercentage      float64 `json:"fee_percentage"`
	FeeAmount          float64 `json:"fee_amount"`
	TotalCharged       float64 `json:"total_charged"`
	AmountToFreelancer float64 `json:"amount_to_freelancer"`
}

// tier 费率分档，按合同预算下界匹配
type tier struct {
	minBudget float64
	percent   float64
}

// 预算越大费率越低，区间含下界
var tiers = []tier{
	{100000, 3},
	{50000, 4},
	{20000, 5},
	{5000, 6},
	{0, 8},
}

// FeePercentFor 根据参考预算返回费率，nil 表示无参考预算
func FeePercentFor(referenceBudget *float64) float64 {
	if referenceBudget == nil || *referenceBudget <= 0 {
		return DefaultFeePercent
	}
	for _, t := range tiers {
		if *referenceBudget >= t.minBudget {
			return t.percent
		}
	}
	return DefaultFeePercent
}

// Calculate 计算平台服务费
// feeAmount = principal × percent / 100，totalCharged = principal + feeAmount，
// 自由职业者所得始终等于本金
func Calculate(principal float64, referenceBudget *float64) Breakdown {
	percent := FeePercentFor(referenceBudget)

	p := decimal.NewFromFloat(principal)
	feeAmount := p.Mul(decimal.NewFromFloat(percent)).Div(decimal.NewFromInt(100)).Round(2)
	total := p.Add(feeAmount).Round(2)

	return Breakdown{
		FeePercentage:      percent,
		FeeAmount:          feeAmount.InexactFloat64(),
		TotalCharged:       total.InexactFloat64(),
		AmountToFreelancer: principal,
	}
}
