package validation

import (
	"reflect"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
)

// registerNullTypes разворачивает null-типы: невалидное значение видно
// валидатору как nil, и срабатывает omitempty.
func registerNullTypes(v *validator.Validate) {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch val := field.Interface().(type) {
		case null.String:
			if val.Valid {
				return val.String
			}
		case null.Int64:
			if val.Valid {
				return val.Int64
			}
		case null.Time:
			if val.Valid {
				return val.Time
			}
		case null.Bool:
			if val.Valid {
				return val.Bool
			}
		}
		return nil
	}, null.String{}, null.Int64{}, null.Time{}, null.Bool{})
}
