package model

import (
	"time"
)

// IngestRun records the outcome of one dataset ingestion
type IngestRun struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	Dataset    string `json:"dataset" gorm:"size:64;not null;index"`
	Source     string `json:"source" gorm:"size:1024"`
	Records    int    `json:"records" gorm:"not null"`
	Features   int    `json:"features" gorm:"not null"`
	Dropped    int    `json:"dropped" gorm:"not null"`
	DurationMs int64  `json:"duration_ms" gorm:"not null"`
	Error      string `json:"error,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;index"`
}

// TableName overrides the table name
func (IngestRun) TableName() string {
	return "ingest_runs"
}

// Succeeded reports whether the ingestion produced a collection
func (r *IngestRun) Succeeded() bool {
	return r.Error == ""
}
