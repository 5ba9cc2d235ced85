package validation

import (
	"strings"

	"pem-system/internal/authz"
	"pem-system/internal/entities"
	"pem-system/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"notblank":         isNotBlank,
		"equipment_status": isEquipmentStatus,
		"shipment_status":  isShipmentStatus,
		"user_role":        isUserRole,
		"import_mode":      isImportMode,
		"flexdate":         isFlexDate,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func isEquipmentStatus(fl validator.FieldLevel) bool {
	return entities.EquipmentStatus(fl.Field().String()).Valid()
}

func isShipmentStatus(fl validator.FieldLevel) bool {
	return entities.ShipmentStatus(fl.Field().String()).Valid()
}

func isUserRole(fl validator.FieldLevel) bool {
	return authz.Role(fl.Field().String()).Valid()
}

func isImportMode(fl validator.FieldLevel) bool {
	return entities.ImportMode(fl.Field().String()).Valid()
}

// isFlexDate - любой формат, который понимает ParseFlexibleDate.
func isFlexDate(fl validator.FieldLevel) bool {
	_, err := utils.ParseFlexibleDate(fl.Field().String())
	return err == nil
}
