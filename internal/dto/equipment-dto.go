package dto

import (
	"pem-system/internal/entities"

	"github.com/aarondl/null/v8"
)

type CreateEquipmentDTO struct {
	Code            string      `json:"code" validate:"required,notblank,max=50"`
	SerialNumber    null.String `json:"serial_number" validate:"omitempty,max=100"`
	Type            string      `json:"type" validate:"required,notblank,max=100"`
	Brand           string      `json:"brand" validate:"required,notblank,max=100"`
	Model           string      `json:"model" validate:"required,notblank,max=100"`
	Location        string      `json:"location" validate:"required,notblank,max=200"`
	Status          null.String `json:"status" validate:"omitempty,equipment_status"`
	AcquisitionDate null.String `json:"acquisition_date" validate:"omitempty,flexdate"`
	Observations    null.String `json:"observations"`
}

// UpdateEquipmentDTO: code неизменяем и принимается только для сверки.
// override_status учитывается только для ADMIN.
type UpdateEquipmentDTO struct {
	Code            null.String `json:"code"`
	SerialNumber    null.String `json:"serial_number" validate:"omitempty,max=100"`
	Type            null.String `json:"type" validate:"omitempty,notblank,max=100"`
	Brand           null.String `json:"brand" validate:"omitempty,notblank,max=100"`
	Model           null.String `json:"model" validate:"omitempty,notblank,max=100"`
	Location        null.String `json:"location" validate:"omitempty,notblank,max=200"`
	Status          null.String `json:"status" validate:"omitempty,equipment_status"`
	AcquisitionDate null.String `json:"acquisition_date" validate:"omitempty,flexdate"`
	Observations    null.String `json:"observations"`
	OverrideStatus  bool        `json:"override_status"`
}

type EquipmentDetailDTO struct {
	entities.Equipment
	History []entities.EquipmentHistory `json:"history"`
}
