package dto

type SeedResultDTO struct {
	Users      int `json:"users"`
	Equipments int `json:"equipments"`
	Shipments  int `json:"shipments"`
}
