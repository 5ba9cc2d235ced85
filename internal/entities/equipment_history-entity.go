package entities

import "time"

type HistoryAction string

const (
	HistoryCreation HistoryAction = "creation"
	HistoryUpdate   HistoryAction = "update"
	HistoryReceipt  HistoryAction = "receipt"
	HistoryImport   HistoryAction = "import"
	HistoryShipment HistoryAction = "shipment"
)

// ResponsibleSystem - исполнитель по умолчанию для автоматических записей.
const ResponsibleSystem = "Sistema"

type EquipmentHistory struct {
	ID          uint64        `json:"id" db:"id"`
	EquipmentID uint64        `json:"equipment_id" db:"equipment_id"`
	Action      HistoryAction `json:"action" db:"action"`
	Description string        `json:"description" db:"description"`
	Location    *string       `json:"location" db:"location"`
	Responsible string        `json:"responsible" db:"responsible"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
