// Доменные метрики: приёмка отправок, импорт и экспорт оборудования.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ShipmentsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pem_shipments_received_total",
		Help: "Количество принятых отправок",
	})

	EquipmentImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pem_equipment_imported_total",
			Help: "Записи оборудования, обработанные импортом",
		},
		[]string{"mode", "result"},
	)

	EquipmentExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pem_equipment_exported_total",
			Help: "Количество выгрузок оборудования по форматам",
		},
		[]string{"format"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pem_login_attempts_total",
			Help: "Попытки входа по результату",
		},
		[]string{"result"},
	)
)
