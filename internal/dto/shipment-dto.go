package dto

import (
	"pem-system/internal/entities"

	"github.com/aarondl/null/v8"
)

type CreateShipmentDTO struct {
	Origin       string      `json:"origin" validate:"required,notblank,max=200"`
	Destination  string      `json:"destination" validate:"required,notblank,max=200"`
	Responsible  string      `json:"responsible" validate:"required,notblank,max=150"`
	Carrier      null.String `json:"carrier" validate:"omitempty,max=150"`
	TrackingCode null.String `json:"tracking_code" validate:"omitempty,max=100"`
	ShipmentDate null.String `json:"shipment_date" validate:"omitempty,flexdate"`
	ExpectedDate null.String `json:"expected_date" validate:"omitempty,flexdate"`
	Observations null.String `json:"observations"`
	EquipmentIDs []uint64    `json:"equipment_ids" validate:"omitempty,dive,gt=0"`
}

// UpdateShipmentDTO: nil EquipmentIDs - состав отправки не меняется,
// пустой список - все связи удаляются.
type UpdateShipmentDTO struct {
	Origin       null.String `json:"origin" validate:"omitempty,notblank,max=200"`
	Destination  null.String `json:"destination" validate:"omitempty,notblank,max=200"`
	Responsible  null.String `json:"responsible" validate:"omitempty,notblank,max=150"`
	Carrier      null.String `json:"carrier" validate:"omitempty,max=150"`
	TrackingCode null.String `json:"tracking_code" validate:"omitempty,max=100"`
	Status       null.String `json:"status" validate:"omitempty,shipment_status"`
	ShipmentDate null.String `json:"shipment_date" validate:"omitempty,flexdate"`
	ExpectedDate null.String `json:"expected_date" validate:"omitempty,flexdate"`
	DeliveryDate null.String `json:"delivery_date" validate:"omitempty,flexdate"`
	Observations null.String `json:"observations"`
	EquipmentIDs *[]uint64   `json:"equipment_ids"`
}

type ReceiveShipmentDTO struct {
	DeliveryDate null.String `json:"delivery_date" validate:"omitempty,flexdate"`
	Observations null.String `json:"observations"`
	Responsible  null.String `json:"responsible" validate:"omitempty,max=150"`
}

type ShipmentDetailDTO struct {
	entities.Shipment
	Equipments []entities.Equipment       `json:"equipments"`
	History    []entities.ShipmentHistory `json:"history"`
}
