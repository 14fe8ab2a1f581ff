package model

import "time"

// LaborEntry is one line of a labor deployment: a head count hired at a
// single per-laborer rate.
type LaborEntry struct {
	LaborCount   int     `json:"laborCount"`
	CostPerLabor float64 `json:"costPerLabor"`
}

// LaborDeployment records a day's labor spend against an accounting code.
// TotalCost is Σ(laborCount × costPerLabor) over Entries unless the caller
// explicitly overrides it.
//
// The accounts schema persists at most two entries per deployment (home-farm
// and outside labor columns); the JSON shape carries the list as-is.
type LaborDeployment struct {
	ID        uint         `json:"id"`
	TenantID  uint         `json:"tenant_id"`
	Code      string       `json:"code"`
	Reference string       `json:"reference"`
	Entries   []LaborEntry `json:"laborEntries"`
	TotalCost float64      `json:"totalCost"`
	Date      time.Time    `json:"date"`
	User      string       `json:"user"`
	Notes     string       `json:"notes"`
}

// ConsumableDeployment is a flat expense record attributed to an
// accounting code. No derived aggregation beyond summation for reporting.
type ConsumableDeployment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	Date      time.Time `json:"date" gorm:"column:entry_date;index"`
	Code      string    `json:"code" gorm:"type:varchar(20);index"`
	Reference string    `json:"reference" gorm:"type:varchar(100)"`
	Amount    float64   `json:"amount" gorm:"column:total_amount"`
	Notes     string    `json:"notes" gorm:"type:text"`
	User      string    `json:"user" gorm:"column:user_id;type:varchar(100)"`
}

func (ConsumableDeployment) TableName() string { return "expense_transactions" }

// AccountActivity names an accounting code, e.g. "204" -> "Weeding".
type AccountActivity struct {
	TenantID uint   `json:"tenant_id" gorm:"primaryKey;autoIncrement:false"`
	Code     string `json:"code" gorm:"type:varchar(20);primaryKey"`
	Activity string `json:"activity" gorm:"type:varchar(100);not null"`
}

func (AccountActivity) TableName() string { return "account_activities" }
