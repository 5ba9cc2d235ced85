package dto

import "pem-system/internal/entities"

type ImportResultDTO struct {
	Success      bool                `json:"success"`
	RecordsCount int                 `json:"records_count"`
	SuccessCount int                 `json:"success_count"`
	ErrorCount   int                 `json:"error_count"`
	Errors       []string            `json:"errors"`
	Log          *entities.ImportLog `json:"log"`
}

// ExportFileDTO - готовый к отдаче файл выгрузки.
type ExportFileDTO struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ImportRequestDTO - поля multipart-формы импорта, кроме самого файла.
type ImportRequestDTO struct {
	Mode string `form:"mode" validate:"omitempty,import_mode"`
}
