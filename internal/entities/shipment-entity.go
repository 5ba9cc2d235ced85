package entities

import (
	"fmt"
	"time"

	"pem-system/pkg/types"
)

type ShipmentStatus string

const (
	ShipmentPreparing ShipmentStatus = "preparing"
	ShipmentShipped   ShipmentStatus = "shipped"
	ShipmentDelivered ShipmentStatus = "delivered"
	ShipmentCanceled  ShipmentStatus = "canceled"
)

// delivered и canceled - терминальные состояния.
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentPreparing: {ShipmentShipped, ShipmentCanceled},
	ShipmentShipped:   {ShipmentDelivered},
	ShipmentDelivered: {},
	ShipmentCanceled:  {},
}

var shipmentStatusLabels = map[ShipmentStatus]string{
	ShipmentPreparing: "Preparando",
	ShipmentShipped:   "Enviado",
	ShipmentDelivered: "Entregue",
	ShipmentCanceled:  "Cancelado",
}

func (s ShipmentStatus) Valid() bool {
	_, ok := shipmentTransitions[s]
	return ok
}

func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range shipmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpen - отправка удерживает своё оборудование.
func (s ShipmentStatus) IsOpen() bool {
	return s == ShipmentPreparing || s == ShipmentShipped
}

func (s ShipmentStatus) Label() string {
	if label, ok := shipmentStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// LinkedEquipmentStatus - статус, который получает оборудование отправки.
func (s ShipmentStatus) LinkedEquipmentStatus() EquipmentStatus {
	if s == ShipmentDelivered {
		return EquipmentReturned
	}
	return EquipmentShipped
}

const shipmentNumberPrefix = "REM"

func FormatShipmentNumber(seq int64) string {
	return fmt.Sprintf("%s%04d", shipmentNumberPrefix, seq)
}

type Shipment struct {
	ID             uint64         `json:"id" db:"id"`
	ShipmentNumber string         `json:"shipment_number" db:"shipment_number"`
	Origin         string         `json:"origin" db:"origin"`
	Destination    string         `json:"destination" db:"destination"`
	Responsible    string         `json:"responsible" db:"responsible"`
	Carrier        *string        `json:"carrier" db:"carrier"`
	TrackingCode   *string        `json:"tracking_code" db:"tracking_code"`
	Status         ShipmentStatus `json:"status" db:"status"`
	ShipmentDate   time.Time      `json:"shipment_date" db:"shipment_date"`
	ExpectedDate   *time.Time     `json:"expected_date" db:"expected_date"`
	DeliveryDate   *time.Time     `json:"delivery_date" db:"delivery_date"`
	Observations   *string        `json:"observations" db:"observations"`
	CreatedBy      *uint64        `json:"created_by" db:"created_by"`

	EquipmentCount int `json:"equipment_count" db:"-"`

	types.BaseEntity
}

type ShipmentEquipment struct {
	ShipmentID  uint64 `db:"shipment_id"`
	EquipmentID uint64 `db:"equipment_id"`
}
