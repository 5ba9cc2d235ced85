package entities

import "time"

type AuditAction string

const (
	AuditLogin           AuditAction = "LOGIN"
	AuditLogout          AuditAction = "LOGOUT"
	AuditCreateUser      AuditAction = "CREATE_USER"
	AuditUpdateUser      AuditAction = "UPDATE_USER"
	AuditDeactivateUser  AuditAction = "DEACTIVATE_USER"
	AuditCreateEquipment AuditAction = "CREATE_EQUIPMENT"
	AuditUpdateEquipment AuditAction = "UPDATE_EQUIPMENT"
	AuditDeleteEquipment AuditAction = "DELETE_EQUIPMENT"
	AuditCreateShipment  AuditAction = "CREATE_SHIPMENT"
	AuditUpdateShipment  AuditAction = "UPDATE_SHIPMENT"
	AuditDeleteShipment  AuditAction = "DELETE_SHIPMENT"
	AuditReceiveShipment AuditAction = "RECEIVE_SHIPMENT"
	AuditImportEquipment AuditAction = "IMPORT_EQUIPMENT"
	AuditExportEquipment AuditAction = "EXPORT_EQUIPMENT"
	AuditSeed            AuditAction = "SEED"
)

type AuditLog struct {
	ID        uint64      `json:"id" db:"id"`
	UserID    *uint64     `json:"user_id" db:"user_id"`
	Action    AuditAction `json:"action" db:"action"`
	Entity    string      `json:"entity" db:"entity"`
	EntityID  *uint64     `json:"entity_id" db:"entity_id"`
	OldValues *string     `json:"old_values" db:"old_values"`
	NewValues *string     `json:"new_values" db:"new_values"`
	IPAddress *string     `json:"ip_address" db:"ip_address"`
	UserAgent *string     `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
