package entities

import (
	"time"

	"pem-system/pkg/types"
)

type EquipmentStatus string

const (
	EquipmentInStock       EquipmentStatus = "in_stock"
	EquipmentShipped       EquipmentStatus = "shipped"
	EquipmentInMaintenance EquipmentStatus = "in_maintenance"
	EquipmentReturned      EquipmentStatus = "returned"
)

// equipmentTransitions - допустимые прямые изменения статуса.
// Одинаковый статус не является переходом и разрешён всегда.
var equipmentTransitions = map[EquipmentStatus][]EquipmentStatus{
	EquipmentInStock:       {EquipmentShipped, EquipmentInMaintenance},
	EquipmentShipped:       {EquipmentReturned, EquipmentInStock, EquipmentInMaintenance},
	EquipmentReturned:      {EquipmentInStock, EquipmentShipped, EquipmentInMaintenance},
	EquipmentInMaintenance: {EquipmentInStock, EquipmentShipped, EquipmentReturned},
}

var equipmentStatusLabels = map[EquipmentStatus]string{
	EquipmentInStock:       "Em Estoque",
	EquipmentShipped:       "Enviado",
	EquipmentInMaintenance: "Em Manutenção",
	EquipmentReturned:      "Devolvido",
}

func (s EquipmentStatus) Valid() bool {
	_, ok := equipmentTransitions[s]
	return ok
}

func (s EquipmentStatus) CanTransitionTo(next EquipmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range equipmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s EquipmentStatus) Label() string {
	if label, ok := equipmentStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

type Equipment struct {
	ID              uint64          `json:"id" db:"id"`
	Code            string          `json:"code" db:"code"`
	SerialNumber    *string         `json:"serial_number" db:"serial_number"`
	Type            string          `json:"type" db:"type"`
	Brand           string          `json:"brand" db:"brand"`
	Model           string          `json:"model" db:"model"`
	Location        string          `json:"location" db:"location"`
	Status          EquipmentStatus `json:"status" db:"status"`
	AcquisitionDate *time.Time      `json:"acquisition_date" db:"acquisition_date"`
	Observations    *string         `json:"observations" db:"observations"`
	CreatedBy       *uint64         `json:"created_by" db:"created_by"`

	types.BaseEntity
}
