package config

type UploadConfig struct {
	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxSizeMB         int64
}

var UploadContexts = map[string]UploadConfig{
	// Файлы импорта оборудования
	"equipment_import": {
		AllowedExtensions: []string{".json", ".csv", ".txt", ".xlsx"},
		AllowedMimeTypes: []string{
			"text/plain; charset=utf-8",
			"text/csv; charset=utf-8",
			"application/json",
			"application/zip",
			"application/octet-stream",
		},
		MaxSizeMB: 10,
	},
}
