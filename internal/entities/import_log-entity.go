package entities

import "time"

type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
	ImportUpdate  ImportMode = "update"
)

func (m ImportMode) Valid() bool {
	switch m {
	case ImportReplace, ImportMerge, ImportUpdate:
		return true
	}
	return false
}

type ImportLog struct {
	ID           uint64     `json:"id" db:"id"`
	FileName     string     `json:"file_name" db:"file_name"`
	FileType     string     `json:"file_type" db:"file_type"`
	Mode         ImportMode `json:"mode" db:"mode"`
	RecordsCount int        `json:"records_count" db:"records_count"`
	SuccessCount int        `json:"success_count" db:"success_count"`
	ErrorCount   int        `json:"error_count" db:"error_count"`
	Errors       *string    `json:"errors" db:"errors"`
	CreatedBy    *uint64    `json:"created_by" db:"created_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
