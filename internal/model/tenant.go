package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant status lifecycle: created at signup as trial, then moved to
// active or suspended by an operator.
const (
	TenantTrial     = "trial"
	TenantActive    = "active"
	TenantSuspended = "suspended"
)

// Tenant represents one isolated customer account. Every other entity is
// owned by exactly one tenant; there are no cross-tenant joins.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);uniqueIndex"`
	OwnerID   uint           `json:"owner_id" gorm:"index;not null"`
	Plan      string         `json:"plan" gorm:"type:varchar(50);default:'standard'"`
	Status    string         `json:"status" gorm:"type:varchar(20);default:'trial'"`
	MaxUsers  int            `json:"max_users" gorm:"default:5"`
	Features  string         `json:"features" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserTenant associates users with tenants. A user may belong to several
// tenants and carries a role within each.
type UserTenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Role      string         `json:"role" gorm:"type:varchar(50);not null;default:'member'"`
	IsDefault bool           `json:"is_default" gorm:"default:false"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	User   User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Tenant Tenant `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
}
