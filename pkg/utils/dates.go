package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
)

var flexibleDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// ParseFlexibleDate разбирает дату из формы, файла импорта или JSON.
func ParseFlexibleDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("неизвестный формат даты: %q", value)
}

// OptionalDate: пустая строка даёт nil.
func OptionalDate(value null.String) (*time.Time, error) {
	if !value.Valid || strings.TrimSpace(value.String) == "" {
		return nil, nil
	}
	t, err := ParseFlexibleDate(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// OptionalString: пустая строка после trim даёт nil.
func OptionalString(value null.String) *string {
	if !value.Valid {
		return nil
	}
	trimmed := strings.TrimSpace(value.String)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func StringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
