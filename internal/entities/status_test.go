package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquipmentStatus_CanTransitionTo(t *testing.T) {
	all := []EquipmentStatus{EquipmentInStock, EquipmentShipped, EquipmentInMaintenance, EquipmentReturned}
	allowed := map[EquipmentStatus][]EquipmentStatus{
		EquipmentInStock:       {EquipmentShipped, EquipmentInMaintenance},
		EquipmentShipped:       {EquipmentReturned, EquipmentInStock, EquipmentInMaintenance},
		EquipmentReturned:      {EquipmentInStock, EquipmentShipped, EquipmentInMaintenance},
		EquipmentInMaintenance: {EquipmentInStock, EquipmentShipped, EquipmentReturned},
	}

	for _, from := range all {
		for _, to := range all {
			expected := from == to
			for _, a := range allowed[from] {
				if a == to {
					expected = true
				}
			}
			assert.Equal(t, expected, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestEquipmentStatus_InStockCannotBeReturned(t *testing.T) {
	assert.False(t, EquipmentInStock.CanTransitionTo(EquipmentReturned))
	assert.False(t, EquipmentStatus("lost").Valid())
	assert.Equal(t, "Em Manutenção", EquipmentInMaintenance.Label())
	assert.Equal(t, "lost", EquipmentStatus("lost").Label())
}

func TestShipmentStatus_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from, to ShipmentStatus
		ok       bool
	}{
		{ShipmentPreparing, ShipmentShipped, true},
		{ShipmentPreparing, ShipmentCanceled, true},
		{ShipmentPreparing, ShipmentDelivered, false},
		{ShipmentShipped, ShipmentDelivered, true},
		{ShipmentShipped, ShipmentCanceled, false},
		{ShipmentShipped, ShipmentPreparing, false},
		{ShipmentDelivered, ShipmentShipped, false},
		{ShipmentDelivered, ShipmentDelivered, true},
		{ShipmentCanceled, ShipmentPreparing, false},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestShipmentStatus_LinkedEquipmentStatus(t *testing.T) {
	assert.Equal(t, EquipmentShipped, ShipmentPreparing.LinkedEquipmentStatus())
	assert.Equal(t, EquipmentShipped, ShipmentShipped.LinkedEquipmentStatus())
	assert.Equal(t, EquipmentReturned, ShipmentDelivered.LinkedEquipmentStatus())

	assert.True(t, ShipmentPreparing.IsOpen())
	assert.True(t, ShipmentShipped.IsOpen())
	assert.False(t, ShipmentDelivered.IsOpen())
	assert.False(t, ShipmentCanceled.IsOpen())
}

func TestFormatShipmentNumber(t *testing.T) {
	assert.Equal(t, "REM0001", FormatShipmentNumber(1))
	assert.Equal(t, "REM0042", FormatShipmentNumber(42))
	assert.Equal(t, "REM12345", FormatShipmentNumber(12345))
}

func TestImportMode_Valid(t *testing.T) {
	assert.True(t, ImportMerge.Valid())
	assert.True(t, ImportUpdate.Valid())
	assert.True(t, ImportReplace.Valid())
	assert.False(t, ImportMode("append").Valid())
}
