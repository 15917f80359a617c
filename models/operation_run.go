package models

import "time"

// OperationRun protokolliert einen Aufruf einer Konsolen-Operation.
type OperationRun struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	SessionID  string `json:"session_id" gorm:"index"`
	Operation  string `json:"operation" gorm:"index;not null"`
	Input      string `json:"input"`
	Outcome    string `json:"outcome" gorm:"index"` // success, failure, stale
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (OperationRun) TableName() string {
	return "operation_runs"
}
