package models

import (
	"encoding/json"
	"time"

	"github.com/daily-ledger/pkg/money"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DateLayout is the wire format of a record date
const DateLayout = "2006-01-02"

// DailyRecord holds one user's deposit and withdraw totals for a calendar date.
// (UserID, Date) is unique across all rows, deleted or not.
type DailyRecord struct {
	ID            uint            `gorm:"primaryKey"`
	UserID        uint            `gorm:"not null;uniqueIndex:unique_user_date,priority:1"`
	Date          datatypes.Date  `gorm:"not null;uniqueIndex:unique_user_date,priority:2"`
	TotalDeposit  decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	TotalWithdraw decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	// CreatedAt is the time of the last write, refreshed on every upsert
	CreatedAt time.Time `gorm:"autoCreateTime:false;not null"`
	IsDeleted bool      `gorm:"not null;index"`
}

// TableName specifies the table name for DailyRecord model
func (DailyRecord) TableName() string {
	return "daily_records"
}

// DailyRecordResponse is the API view of a DailyRecord
type DailyRecordResponse struct {
	ID            uint        `json:"id"`
	UserID        uint        `json:"user_id"`
	Date          string      `json:"date"`
	TotalDeposit  json.Number `json:"total_deposit"`
	TotalWithdraw json.Number `json:"total_withdraw"`
	CreatedAt     time.Time   `json:"created_at"`
	IsDeleted     bool        `json:"is_deleted"`
}

// ToResponse converts the record to its API view
func (r *DailyRecord) ToResponse() DailyRecordResponse {
	return DailyRecordResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		Date:          r.DateString(),
		TotalDeposit:  json.Number(money.Format(r.TotalDeposit)),
		TotalWithdraw: json.Number(money.Format(r.TotalWithdraw)),
		CreatedAt:     r.CreatedAt,
		IsDeleted:     r.IsDeleted,
	}
}

// DateString formats the record date as YYYY-MM-DD
func (r *DailyRecord) DateString() string {
	return time.Time(r.Date).Format(DateLayout)
}

// NewDate truncates t to its calendar date in UTC
func NewDate(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
