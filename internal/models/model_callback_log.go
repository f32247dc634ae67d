package models

import (
	"time"

	"gorm.io/datatypes"
)

type CallbackLogStatus string

const (
	CallbackLogStatusReceived     CallbackLogStatus = "received"
	CallbackLogStatusHandled      CallbackLogStatus = "handled"
	CallbackLogStatusHandleFailed CallbackLogStatus = "handle_failed"
)

// CallbackLog keeps every inbound gateway callback for troubleshooting. One
// row is written on receipt and one with the handling result.
type CallbackLog struct {
	ID        string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TxRef     string            `gorm:"column:tx_ref;type:varchar(128);not null;index" json:"tx_ref"`
	TraceID   string            `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	Data      datatypes.JSON    `gorm:"column:data;type:jsonb" json:"data"`
	Result    *datatypes.JSON   `gorm:"column:result;type:jsonb" json:"result"`
	Status    CallbackLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (CallbackLog) TableName() string { return "payment_callback_log" }
