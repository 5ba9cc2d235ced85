package seeders

import (
	"pem-system/internal/authz"
	"pem-system/internal/entities"
)

type seedUser struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     authz.Role
}

// Демонстрационные учётные записи, пароли известны заранее.
var usersData = []seedUser{
	{Name: "Administrador", Username: "admin", Email: "admin@pem.com", Password: "admin123", Role: authz.RoleAdmin},
	{Name: "Operador Padrão", Username: "operador", Email: "operador@pem.com", Password: "oper123", Role: authz.RoleOperator},
	{Name: "Visualizador", Username: "viewer", Email: "viewer@pem.com", Password: "view123", Role: authz.RoleViewer},
}

type seedEquipment struct {
	Code            string
	SerialNumber    string
	Type            string
	Brand           string
	Model           string
	Location        string
	Status          entities.EquipmentStatus
	AcquisitionDate string
	Observations    string
	CreatedBy       string
}

var equipmentsData = []seedEquipment{
	{"EQ001", "SN001234567", "Notebook", "Dell", "Latitude 5420", "Curitiba", entities.EquipmentShipped, "2023-01-15", "Fonte trocada em jan/2024", "admin"},
	{"EQ002", "SN002345678", "Impressora", "HP", "LaserJet 1020", "São Paulo", entities.EquipmentInStock, "2023-03-20", "OK", "operador"},
	{"EQ003", "SN003456789", "Monitor", "LG", "24MP59G", "Rio de Janeiro", entities.EquipmentInMaintenance, "2023-02-10", "Display com falha, em manutenção", "operador"},
	{"EQ004", "SN004567890", "Desktop", "Lenovo", "ThinkCentre M720q", "Belo Horizonte", entities.EquipmentReturned, "2023-04-05", "Devolvido do cliente em 15/05/2024", "admin"},
	{"EQ005", "SN005678901", "Teclado", "Logitech", "K120", "Porto Alegre", entities.EquipmentInStock, "2023-05-12", "Novo na caixa", "operador"},
}

type seedShipment struct {
	Origin        string
	Destination   string
	Responsible   string
	Carrier       string
	TrackingCode  string
	Status        entities.ShipmentStatus
	ShipmentDate  string
	ExpectedDate  string
	DeliveryDate  string
	Observations  string
	CreatedBy     string
	EquipmentCode string
}

// Пустая дата отправки - текущий момент.
var shipmentsData = []seedShipment{
	{"São Paulo", "Curitiba", "João Silva", "Correios", "BR123456789BR", entities.ShipmentShipped, "2024-01-10", "2024-01-15", "", "Envio urgente", "admin", "EQ001"},
	{"Rio de Janeiro", "Belo Horizonte", "Maria Santos", "Transportadora XYZ", "XYZ987654321", entities.ShipmentDelivered, "2024-01-05", "2024-01-08", "2024-01-07", "Entregue com sucesso", "operador", "EQ004"},
	{"Porto Alegre", "Salvador", "Carlos Oliveira", "Braspress", "", entities.ShipmentPreparing, "", "", "", "Aguardando confirmação", "admin", ""},
}
