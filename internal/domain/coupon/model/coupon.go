package model

import (
	baseModel "meal_coupon/pkg/model"
	"time"
)

// Event 节庆日
type Event string

const (
	EventSaptami Event = "SAPTAMI"
	EventAstami  Event = "ASTAMI"
	EventNabami  Event = "NABAMI"
	EventDashami Event = "DASHAMI"
)

// Events 按节庆顺序排列
var Events = []Event{EventSaptami, EventAstami, EventNabami, EventDashami}

func (e Event) Valid() bool {
	for _, v := range Events {
		if v == e {
			return true
		}
	}
	return false
}

// SubEvent 餐次
type SubEvent string

const (
	SubEventBreakfast SubEvent = "BREAKFAST"
	SubEventLunch     SubEvent = "LUNCH"
	SubEventDinner    SubEvent = "DINNER"
)

var SubEvents = []SubEvent{SubEventBreakfast, SubEventLunch, SubEventDinner}

func (s SubEvent) Valid() bool {
	for _, v := range SubEvents {
		if v == s {
			return true
		}
	}
	return false
}

type MealType string

const (
	MealVeg    MealType = "Veg"
	MealNonVeg MealType = "NonVeg"
)

func (m MealType) Valid() bool {
	return m == MealVeg || m == MealNonVeg
}

// Status 餐券主状态
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusExpired  Status = "EXPIRED"
	StatusRedeemed Status = "REDEEMED"
)

// RedeemStatus 核销方式，首次核销前为 NA
type RedeemStatus string

const (
	RedeemNA       RedeemStatus = "NA"
	RedeemDineIn   RedeemStatus = "DINE-IN"
	RedeemTakeAway RedeemStatus = "TAKE-AWAY"
)

// Valid 只有堂食和外带是合法的核销请求
func (r RedeemStatus) Valid() bool {
	return r == RedeemDineIn || r == RedeemTakeAway
}

// TakeAwayStatus 外带审批子状态，仅在 RedeemStatus 为 TAKE-AWAY 时有意义
type TakeAwayStatus string

const (
	TakeAwayNA       TakeAwayStatus = "NA"
	TakeAwayPending  TakeAwayStatus = "PENDING"
	TakeAwayApproved TakeAwayStatus = "APPROVED"
	TakeAwayRejected TakeAwayStatus = "REJECTED"
)

// Coupon 餐券
type Coupon struct {
	baseModel.BaseModel
	Nomenclature   string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"nomenclature"`
	OwnerID        string         `gorm:"type:uuid;index;not null" json:"ownerId"`
	UnitNumber     string         `gorm:"type:varchar(32);index;not null" json:"unitNumber"` // 创建时从用户冗余，之后不再修改
	SubscriptionID string         `gorm:"type:varchar(64)" json:"subscriptionId"`
	Event          Event          `gorm:"type:varchar(16);index;not null" json:"event"`
	SubEvent       SubEvent       `gorm:"type:varchar(16);not null" json:"subEvent"`
	MealType       MealType       `gorm:"type:varchar(16);not null" json:"mealType"`
	SessionYear    int            `gorm:"not null" json:"sessionYear"`
	ValidFrom      time.Time      `gorm:"not null" json:"validFrom"`
	ValidTo        time.Time      `gorm:"not null" json:"validTo"`
	Status         Status         `gorm:"type:varchar(16);index;not null" json:"status"`
	RedeemStatus   RedeemStatus   `gorm:"type:varchar(16);not null" json:"redeemStatus"`
	TakeAwayStatus TakeAwayStatus `gorm:"type:varchar(16);not null" json:"takeAwayStatus"`
	LastUpdatedAt  time.Time      `json:"lastUpdatedAt"`
	LastUpdatedBy  string         `gorm:"type:varchar(100)" json:"lastUpdatedBy"`
	Version        int64          `gorm:"not null" json:"version"` // 乐观锁版本号
}

// Filter 查询条件，零值字段不参与过滤
type Filter struct {
	OwnerID  string
	Unit     string
	Event    Event
	SubEvent SubEvent
	Status   Status
}

// CouponFact 报表用的轻量投影
type CouponFact struct {
	UnitNumber     string         `db:"unit_number"`
	Event          Event          `db:"event"`
	SubEvent       SubEvent       `db:"sub_event"`
	Status         Status         `db:"status"`
	RedeemStatus   RedeemStatus   `db:"redeem_status"`
	TakeAwayStatus TakeAwayStatus `db:"take_away_status"`
	ValidFrom      time.Time      `db:"valid_from"`
	ValidTo        time.Time      `db:"valid_to"`
}
