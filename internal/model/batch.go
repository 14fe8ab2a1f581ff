package model

import "time"

// Processing stages a coffee batch moves through, in order.
const (
	StageCherry    = "cherry"
	StagePulped    = "pulped"
	StageFermented = "fermented"
	StageWashed    = "washed"
	StageDried     = "dried"
	StageMilled    = "milled"
	StageGraded    = "graded"
)

// StageOrder maps each processing stage to its position in the chain.
// A batch may only advance to a later stage, never move backwards.
var StageOrder = map[string]int{
	StageCherry:    0,
	StagePulped:    1,
	StageFermented: 2,
	StageWashed:    3,
	StageDried:     4,
	StageMilled:    5,
	StageGraded:    6,
}

// ProcessingBatch is a traceability record for one lot of coffee moving
// through processing. Weights are recorded as the batch advances; a weight
// of zero means that stage has not been reached.
type ProcessingBatch struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	TenantID       uint       `json:"tenant_id" gorm:"index;not null"`
	LotCode        string     `json:"lot_code" gorm:"type:varchar(50);index;not null"`
	Stage          string     `json:"stage" gorm:"type:varchar(20);not null;default:'cherry'"`
	CherryWeightKg float64    `json:"cherry_weight_kg"`
	ParchmentKg    float64    `json:"parchment_kg"`
	GreenKg        float64    `json:"green_kg"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Notes          string     `json:"notes" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Checkpoints []QualityCheckpoint `json:"checkpoints,omitempty" gorm:"foreignKey:BatchID"`
}

func (ProcessingBatch) TableName() string { return "processing_batches" }

// QualityCheckpoint is a quality observation taken at a processing stage.
type QualityCheckpoint struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TenantID    uint      `json:"tenant_id" gorm:"index;not null"`
	BatchID     uint      `json:"batch_id" gorm:"index;not null"`
	Stage       string    `json:"stage" gorm:"type:varchar(20);not null"`
	CheckedAt   time.Time `json:"checked_at"`
	Grade       string    `json:"grade" gorm:"type:varchar(20)"`
	MoisturePct float64   `json:"moisture_pct"`
	DefectCount int       `json:"defect_count"`
	CheckedBy   string    `json:"checked_by" gorm:"type:varchar(100)"`
	Notes       string    `json:"notes" gorm:"type:text"`
}

func (QualityCheckpoint) TableName() string { return "quality_checkpoints" }
