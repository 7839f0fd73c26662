package models

import "time"

// 运行状态
const (
	PipelineRunStatusSuccess = "success"
	PipelineRunStatusFailed  = "failed"
)

// PipelineRun 清洗管道运行记录
type PipelineRun struct {
	ID            string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Source        string           `json:"source" gorm:"size:1024"`  // 文件路径或 inline
	Trigger       string           `json:"trigger" gorm:"size:64"`   // api, scheduler:<job>
	Status        string           `json:"status" gorm:"size:20;index"`
	ErrorType     string           `json:"error_type,omitempty" gorm:"size:64"`
	ErrorMessage  string           `json:"error_message,omitempty" gorm:"type:text"`
	InputRows     int              `json:"input_rows"`
	InputColumns  int              `json:"input_columns"`
	OutputRows    int              `json:"output_rows"`
	OutputColumns int              `json:"output_columns"`
	Stages        JSONBStringArray `json:"stages" gorm:"type:jsonb"`
	Warnings      JSONBStringArray `json:"warnings" gorm:"type:jsonb"`
	Config        JSONB            `json:"config" gorm:"type:jsonb"`
	StartedAt     time.Time        `json:"started_at" gorm:"index"`
	DurationMs    int64            `json:"duration_ms"`
	CreatedAt     time.Time        `json:"created_at"`
}

// TableName 表名
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
