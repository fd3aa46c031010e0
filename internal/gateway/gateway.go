package gateway

import (
	"context"
	"time"
)

// 支付单状态
const (
	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusFailed     = "failed"
)

// Order 网关支付订单
type Order struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
	Status   string  `json:"status"`
}

// Payment 网关支付单
type Payment struct {
	ID         string     `json:"id"`
	OrderID    string     `json:"order_id"`
	Status     string     `json:"status"`
	Amount     float64    `json:"amount"`
	Currency   string     `json:"currency"`
	Method     string     `json:"method"`
	CapturedAt *time.Time `json:"captured_at"`
}

// Adapter 支付网关适配器
// 进程启动时构造一次并注入，测试中可替换为假实现
type Adapter interface {
	// CreateOrder 创建支付订单
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*Order, error)
	// VerifySignature 校验支付回调签名，纯计算不访问网络
	VerifySignature(orderID, paymentID, signature string) bool
	// FetchPayment 查询支付单状态
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
}
