package fee

import (
	"testing"
)

func budget(v float64) *float64 {
	return &v
}

func TestFeePercentFor(t *testing.T) {
	tests := []struct {
		name   string
		budget *float64
		want   float64
	}{
		{"无参考预算使用默认费率", nil, 5},
		{"零预算使用默认费率", budget(0), 5},
		{"负预算使用默认费率", budget(-100), 5},
		{"低于5000为8%", budget(4999), 8},
		{"恰好5000为6%", budget(5000), 6},
		{"刚过5000为6%", budget(5001), 6},
		{"低于20000为6%", budget(19999), 6},
		{"恰好20000为5%", budget(20000), 5},
		{"刚过20000为5%", budget(20001), 5},
		{"低于50000为5%", budget(49999), 5},
		{"恰好50000为4%", budget(50000), 4},
		{"刚过50000为4%", budget(50001), 4},
		{"低于100000为4%", budget(99999), 4},
		{"恰好100000为3%", budget(100000), 3},
		{"刚过100000为3%", budget(100001), 3},
		{"远超100000为3%", budget(5000000), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FeePercentFor(tt.budget)
			if got != tt.want {
				t.Errorf("FeePercentFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name          string
		principal     float64
		budget        *float64
		wantPercent   float64
		wantFee       float64
		wantTotal     float64
	}{
		{"无预算3000本金", 3000, nil, 5, 150, 3150},
		{"小额合同", 3000, budget(3000), 8, 240, 3240},
		{"中等合同", 7500, budget(15000), 6, 450, 7950},
		{"大额合同", 10000, budget(60000), 4, 400, 10400},
		{"超大合同", 40000, budget(200000), 3, 1200, 41200},
		{"零本金", 0, budget(10000), 6, 0, 0},
		{"小数本金四舍五入", 999.99, budget(1000), 8, 80, 1079.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.principal, tt.budget)

			if got.FeePercentage != tt.wantPercent {
				t.Errorf("FeePercentage = %v, want %v", got.FeePercentage, tt.wantPercent)
			}
			if got.FeeAmount != tt.wantFee {
				t.Errorf("FeeAmount = %v, want %v", got.FeeAmount, tt.wantFee)
			}
			if got.TotalCharged != tt.wantTotal {
				t.Errorf("TotalCharged = %v, want %v", got.TotalCharged, tt.wantTotal)
			}
			if got.AmountToFreelancer != tt.principal {
				t.Errorf("AmountToFreelancer = %v, want %v", got.AmountToFreelancer, tt.principal)
			}
		})
	}
}

// 任意输入下总额都必须等于本金加手续费
func TestCalculateInvariant(t *testing.T) {
	principals := []float64{1, 100, 2500, 7500.50, 99999}
	budgets := []*float64{nil, budget(4999), budget(5000), budget(20000), budget(50000), budget(100000)}

	for _, p := range principals {
		for _, b := range budgets {
			got := Calculate(p, b)
			if diff := got.TotalCharged - (p + got.FeeAmount); diff > 0.001 || diff < -0.001 {
				t.Errorf("Calculate(%v, %v): TotalCharged %v != principal %v + fee %v",
					p, b, got.TotalCharged, p, got.FeeAmount)
			}
		}
	}
}
