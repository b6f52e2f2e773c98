package model

import "time"

// Role 用户角色
const (
	RoleUser     = 1
	RoleOperator = 2
	RoleAdmin    = 3
)

// User 外部系统维护的住户信息，本服务只读
type User struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `json:"name"`
	UnitNumber  string    `gorm:"uniqueIndex;not null" json:"unitNumber"`
	Role        int       `json:"role"`
	Active      bool      `json:"active"`
	SessionYear int       `json:"sessionYear"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
