package model

import "time"

// TakeAwayAction 外带审批动作
type TakeAwayAction string

const (
	TakeAwayRequest TakeAwayAction = "request"
	TakeAwayApprove TakeAwayAction = "approve"
	TakeAwayReject  TakeAwayAction = "reject"
)

// window 将有效期换算到 now 所在时区后返回
func (c *Coupon) window(now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	return c.ValidFrom.In(loc), c.ValidTo.In(loc)
}

// Reconcile 按时间推导餐券应处的状态，返回是否发生变化。
// 规则按优先级匹配，命中即止；已核销的券不受时间影响。
func (c *Coupon) Reconcile(now time.Time) bool {
	if c.Status == StatusRedeemed {
		return false
	}

	from, to := c.window(now)
	switch {
	case now.Before(from):
		// EXPIRED 不回退
		if c.Status == StatusActive {
			c.Status = StatusPending
			return true
		}
	case !now.After(to):
		if c.Status == StatusPending {
			c.Status = StatusActive
			return true
		}
	default:
		switch c.Status {
		case StatusActive, StatusPending:
			c.Status = StatusExpired
			return true
		case StatusExpired:
			// 过期但已记录过核销动作，补记为已核销
			if c.RedeemStatus != RedeemNA || c.TakeAwayStatus != TakeAwayNA {
				c.Status = StatusRedeemed
				return true
			}
		}
	}
	return false
}

// Redeem 以指定方式核销餐券。已核销的券只允许切换堂食/外带。
func (c *Coupon) Redeem(mode RedeemStatus, actor string, now time.Time) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	if c.Status == StatusExpired {
		return ErrExpired
	}
	if from, _ := c.window(now); from.After(now) {
		return ErrNotYetValid
	}
	if c.Status == StatusRedeemed && c.RedeemStatus == mode {
		return ErrAlreadyRedeemed
	}

	c.Status = StatusRedeemed
	c.RedeemStatus = mode
	switch mode {
	case RedeemTakeAway:
		if c.TakeAwayStatus == TakeAwayNA {
			c.TakeAwayStatus = TakeAwayPending
		}
	case RedeemDineIn:
		c.TakeAwayStatus = TakeAwayNA
	}
	c.touch(actor, now)
	return nil
}

// ApplyTakeAway 推进外带审批子状态机：NA -> PENDING -> APPROVED/REJECTED
func (c *Coupon) ApplyTakeAway(action TakeAwayAction, actor string, now time.Time) error {
	switch action {
	case TakeAwayRequest:
		if c.RedeemStatus != RedeemTakeAway {
			return ErrWrongRedeemMode
		}
		if c.TakeAwayStatus != TakeAwayNA {
			return ErrWrongTakeAwayState
		}
		c.TakeAwayStatus = TakeAwayPending
	case TakeAwayApprove, TakeAwayReject:
		if c.TakeAwayStatus != TakeAwayPending {
			return ErrWrongTakeAwayState
		}
		if action == TakeAwayApprove {
			c.TakeAwayStatus = TakeAwayApproved
		} else {
			c.TakeAwayStatus = TakeAwayRejected
		}
	default:
		return ErrInvalidAction
	}
	c.touch(actor, now)
	return nil
}

// CheckInvariants 每次写入前校验状态组合
func (c *Coupon) CheckInvariants() error {
	if c.TakeAwayStatus != TakeAwayNA && c.RedeemStatus != RedeemTakeAway {
		return ErrInvariant
	}
	if c.RedeemStatus == RedeemDineIn && c.TakeAwayStatus != TakeAwayNA {
		return ErrInvariant
	}
	if c.Status == StatusRedeemed && !c.RedeemStatus.Valid() {
		return ErrInvariant
	}
	if c.ValidFrom.After(c.ValidTo) {
		return ErrInvalidWindow
	}
	return nil
}

func (c *Coupon) touch(actor string, now time.Time) {
	c.LastUpdatedBy = actor
	c.LastUpdatedAt = now
}
