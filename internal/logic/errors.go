package logic

import "errors"

// 托管操作错误，handler 层据此映射HTTP状态码
var (
	ErrEscrowNotFound          = errors.New("托管记录不存在")
	ErrMilestoneNotFound       = errors.New("里程碑不存在")
	ErrEscrowExists            = errors.New("该里程碑已存在未终结的托管记录")
	ErrUnauthorized            = errors.New("无权执行该操作")
	ErrInvalidSignature        = errors.New("支付签名校验失败")
	ErrPaymentNotCaptured      = errors.New("支付未完成")
	ErrReleaseNotEligible      = errors.New("不满足放款条件")
	ErrEscrowDisputed          = errors.New("托管记录处于争议中")
	ErrEscrowNotActive         = errors.New("托管记录不在生效状态")
	ErrEscrowNotPending        = errors.New("托管记录不在待支付状态")
	ErrEscrowNotDisputed       = errors.New("托管记录不在争议状态")
	ErrDeliverableNotSubmitted = errors.New("尚未提交交付物")
	ErrInvalidResolution       = errors.New("无效的争议处理结果")
	ErrGateway                 = errors.New("支付网关请求失败")
)
