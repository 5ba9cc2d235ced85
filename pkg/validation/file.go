package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"pem-system/pkg/config"
	apperrors "pem-system/pkg/errors"
)

// ValidateFile проверяет размер, расширение и сигнатуру файла.
// contextName - ключ из config.UploadContexts (например, "equipment_import").
func ValidateFile(fileHeader *multipart.FileHeader, file io.ReadSeeker, contextName string) error {
	rules, ok := config.UploadContexts[contextName]
	if !ok {
		return fmt.Errorf("внутренняя ошибка: неизвестный контекст загрузки '%s'", contextName)
	}

	if rules.MaxSizeMB > 0 {
		maxSizeBytes := rules.MaxSizeMB * 1024 * 1024
		if fileHeader.Size > maxSizeBytes {
			return apperrors.NewValidationError("Arquivo excede o limite de %d MB", rules.MaxSizeMB)
		}
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !slices.Contains(rules.AllowedExtensions, ext) {
		return apperrors.NewValidationError("Formato de arquivo não suportado: %s", ext)
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("ошибка обработки файла: %w", err)
	}
	if n == 0 {
		return apperrors.NewValidationError("Arquivo vazio")
	}

	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(rules.AllowedMimeTypes, mimeType) {
		return apperrors.NewValidationError("Conteúdo de arquivo inválido: %s", mimeType)
	}

	// xlsx - это zip-архив, текстовые форматы не должны им быть
	if ext == ".xlsx" && mimeType != "application/zip" {
		return apperrors.NewValidationError("Arquivo XLSX inválido")
	}
	return nil
}
