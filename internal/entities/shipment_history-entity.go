package entities

import "time"

type ShipmentHistory struct {
	ID          uint64        `json:"id" db:"id"`
	ShipmentID  uint64        `json:"shipment_id" db:"shipment_id"`
	Action      HistoryAction `json:"action" db:"action"`
	Description string        `json:"description" db:"description"`
	Responsible string        `json:"responsible" db:"responsible"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
