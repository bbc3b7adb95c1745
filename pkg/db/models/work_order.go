package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/hangarops/hangar-backend/pkg/enums"
	"github.com/hangarops/hangar-backend/pkg/types"
)

// WorkOrder is one maintenance job against a single aircraft or external
// component.
type WorkOrder struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber int64                `gorm:"column:order_number;not null;uniqueIndex"`
	SubjectKind enums.SubjectKind    `gorm:"column:subject_kind;type:text;not null"`
	SubjectID   uuid.UUID            `gorm:"column:subject_id;type:uuid;not null;index"`
	State       enums.WorkOrderState `gorm:"column:state;type:text;not null;default:'open';index"`
	Archived    bool                 `gorm:"column:archived;not null;default:false"`

	RequestDescription      *string `gorm:"column:request_description"`
	RequestedBy             *string `gorm:"column:requested_by"`
	PriorOrderReference     *string `gorm:"column:prior_order_reference"`
	RequestSignatureFileRef *string `gorm:"column:request_signature_file_ref"`

	ReceivingInspectionDone bool    `gorm:"column:receiving_inspection_done;not null;default:false"`
	PriorDamageNotes        *string `gorm:"column:prior_damage_notes"`
	ActionTaken             *string `gorm:"column:action_taken"`
	Discrepancies           *string `gorm:"column:discrepancies"`

	InvoiceNumber  *string            `gorm:"column:invoice_number"`
	InvoiceFileRef *string            `gorm:"column:invoice_file_ref"`
	InvoiceState   enums.InvoiceState `gorm:"column:invoice_state;type:text;not null;default:'pending'"`

	ClosureSnapshot *types.ClosureSnapshot `gorm:"column:closure_snapshot;type:jsonb"`
	ClosedAt        *time.Time             `gorm:"column:closed_at"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Tools     []ToolAssignment      `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Stock     []StockAssignment     `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
	Personnel []PersonnelAssignment `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`
}

// Subject returns the tagged subject reference.
func (w WorkOrder) Subject() types.SubjectRef {
	return types.SubjectRef{Kind: w.SubjectKind, ID: w.SubjectID}
}

// WorkOrderCounter hands out sequential order numbers.
type WorkOrderCounter struct {
	Name  string `gorm:"column:name;primaryKey"`
	Value int64  `gorm:"column:value;not null"`
}

func (WorkOrderCounter) TableName() string { return "work_order_counters" }
