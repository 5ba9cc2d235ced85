package types

type DashboardStats struct {
	TotalEquipments    int64 `json:"total_equipments"`
	InStock            int64 `json:"in_stock"`
	Shipped            int64 `json:"shipped"`
	InMaintenance      int64 `json:"in_maintenance"`
	Returned           int64 `json:"returned"`
	TotalShipments     int64 `json:"total_shipments"`
	ActiveShipments    int64 `json:"active_shipments"`
	DeliveredShipments int64 `json:"delivered_shipments"`
	DeliveredThisMonth int64 `json:"delivered_this_month"`
	CreatedThisMonth   int64 `json:"shipments_created_this_month"`
}

type DashboardCountByGroup struct {
	GroupName string `json:"group_name" db:"group_name"`
	Count     int64  `json:"count" db:"count"`
}

type DashboardActivityItem struct {
	ShipmentID     uint64 `json:"shipment_id"`
	ShipmentNumber string `json:"shipment_number"`
	Text           string `json:"text"`
	Responsible    string `json:"responsible"`
	Date           string `json:"date"`
}
