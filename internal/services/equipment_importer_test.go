package services

import (
	"strings"
	"testing"

	"pem-system/internal/entities"
	apperrors "pem-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importHeader = "codigo,numero de serie,tipo,marca,modelo,localizacao,situacao,data de aquisicao,observacoes\n"

func csvFile(rows ...string) []byte {
	return []byte(importHeader + strings.Join(rows, "\n") + "\n")
}

func TestImportEquipments_CreatesNewRecords(t *testing.T) {
	env := newTestEnv()
	content := csvFile(
		"EQ100,SN-1,Notebook,Dell,Latitude,São Paulo - SP,,2024-01-15,",
		"EQ101,,Monitor,LG,29WK,Curitiba - PR,Em Manutenção,,",
	)

	result, err := env.imports.ImportEquipments(operatorCtx(), "lote.csv", content, entities.ImportMerge)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RecordsCount)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Zero(t, result.ErrorCount)
	require.NotNil(t, result.Log)
	assert.Equal(t, "csv", result.Log.FileType)
	assert.Equal(t, entities.ImportMerge, result.Log.Mode)
	assert.Nil(t, result.Log.Errors)

	require.Len(t, env.store.equipments, 2)
	for _, e := range env.store.equipments {
		history := env.equipmentHistoryFor(e.ID)
		require.Len(t, history, 1)
		assert.Equal(t, entities.HistoryImport, history[0].Action)
		assert.Equal(t, "Equipamento importado do arquivo lote.csv", history[0].Description)
		if e.Code == "EQ101" {
			assert.Equal(t, entities.EquipmentInMaintenance, e.Status)
		} else {
			assert.Equal(t, entities.EquipmentInStock, e.Status)
		}
	}
	assert.Len(t, env.store.importLogs, 1)
	assert.Contains(t, env.store.auditActions(), entities.AuditImportEquipment)
}

func TestImportEquipments_RecordErrorsDoNotStopImport(t *testing.T) {
	env := newTestEnv()
	content := csvFile(
		"EQ100,,Notebook,Dell,Latitude,São Paulo - SP,,ontem,",
		",,Monitor,LG,29WK,Curitiba - PR,,,",
		"EQ102,,Notebook,,Latitude,São Paulo - SP,,,",
		"EQ103,,Notebook,Dell,Latitude,São Paulo - SP,,,",
	)

	result, err := env.imports.ImportEquipments(operatorCtx(), "lote.csv", content, entities.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 4, result.RecordsCount)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 3, result.ErrorCount)
	assert.True(t, result.Success)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "Linha 2 (EQ100): data de aquisição inválida: ontem", result.Errors[0])
	assert.Equal(t, "Linha 3: código ausente", result.Errors[1])
	assert.Contains(t, result.Errors[2], "Linha 4 (EQ102)")
	require.NotNil(t, result.Log.Errors)
	assert.Equal(t, strings.Join(result.Errors, "\n"), *result.Log.Errors)

	require.Len(t, env.store.equipments, 1)
	for _, e := range env.store.equipments {
		assert.Equal(t, "EQ103", e.Code)
	}
}

func TestImportEquipments_AllRecordsFail(t *testing.T) {
	env := newTestEnv()
	result, err := env.imports.ImportEquipments(operatorCtx(), "lote.csv", csvFile(",,Monitor,LG,29WK,Curitiba - PR,,,"), entities.ImportMerge)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.ErrorCount)
}

func TestImportEquipments_MergeKeepsExistingValues(t *testing.T) {
	env := newTestEnv()
	existing := env.addEquipment("EQ001", entities.EquipmentInStock, "São Paulo - SP")
	serial := "SN-OLD"
	e := env.store.equipments[existing.ID]
	e.SerialNumber = &serial
	env.store.equipments[existing.ID] = e

	content := csvFile("EQ001,,Notebook,Lenovo,,,,,")
	result, err := env.imports.ImportEquipments(operatorCtx(), "lote.csv", content, entities.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)

	merged := env.equipment(existing.ID)
	assert.Equal(t, "Lenovo", merged.Brand)
	assert.Equal(t, "Latitude 5420", merged.Model)
	assert.Equal(t, "São Paulo - SP", merged.Location)
	require.NotNil(t, merged.SerialNumber)
	assert.Equal(t, "SN-OLD", *merged.SerialNumber)
	assert.Equal(t, entities.EquipmentInStock, merged.Status)

	history := env.equipmentHistoryFor(existing.ID)
	require.Len(t, history, 1)
	assert.Equal(t, "Equipamento atualizado por importação", history[0].Description)
}

func TestImportEquipments_UpdateOverwritesPresentColumns(t *testing.T) {
	env := newTestEnv()
	existing := env.addEquipment("EQ001", entities.EquipmentInStock, "São Paulo - SP")
	serial := "SN-OLD"
	e := env.store.equipments[existing.ID]
	e.SerialNumber = &serial
	env.store.equipments[existing.ID] = e

	content := []byte("codigo,numero de serie,localizacao\nEQ001,,Curitiba - PR\n")
	result, err := env.imports.ImportEquipments(operatorCtx(), "lote.csv", content, entities.ImportUpdate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)

	updated := env.equipment(existing.ID)
	assert.Nil(t, updated.SerialNumber)
	assert.Equal(t, "Curitiba - PR", updated.Location)
	// отсутствующие колонки не трогаются
	assert.Equal(t, "Dell", updated.Brand)

	history := env.equipmentHistoryFor(existing.ID)
	require.Len(t, history, 1)
	assert.Equal(t, "Equipamento atualizado por importação: Localização: São Paulo - SP → Curitiba - PR", history[0].Description)

	// пустая обязательная колонка в режиме update - ошибка записи
	result, err = env.imports.ImportEquipments(operatorCtx(), "lote.csv", []byte("codigo,marca\nEQ001,\n"), entities.ImportUpdate)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, "Dell", env.equipment(existing.ID).Brand)
}

func TestImportEquipments_StatusTransitionsForNonAdmin(t *testing.T) {
	env := newTestEnv()
	existing := env.addEquipment("EQ001", entities.EquipmentInStock, "São Paulo - SP")
	content := []byte("codigo,situacao\nEQ001,Devolvido\n")

	result, err := env.imports.ImportEquipments(operatorCtx(), "lote.csv", content, entities.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Contains(t, result.Errors[0], "transição de status inválida")
	assert.Equal(t, entities.EquipmentInStock, env.equipment(existing.ID).Status)

	result, err = env.imports.ImportEquipments(adminCtx(), "lote.csv", content, entities.ImportMerge)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, entities.EquipmentReturned, env.equipment(existing.ID).Status)
}

func TestImportEquipments_Replace(t *testing.T) {
	env := newTestEnv()
	old := env.addEquipment("EQ001", entities.EquipmentInStock, "São Paulo - SP")

	result, err := env.imports.ImportEquipments(adminCtx(), "novo.csv", csvFile("EQ500,,Notebook,Dell,Latitude,Recife - PE,,,"), entities.ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.NotContains(t, env.store.equipments, old.ID)
	require.Len(t, env.store.equipments, 1)
	for _, e := range env.store.equipments {
		assert.Equal(t, "EQ500", e.Code)
	}
}

func TestImportEquipments_ReplaceBlockedByOpenShipment(t *testing.T) {
	env := newTestEnv()
	eq := env.addEquipment("EQ001", entities.EquipmentInStock, "São Paulo - SP")
	_, err := env.shipments.CreateShipment(operatorCtx(), newShipmentPayload(eq.ID))
	require.NoError(t, err)

	_, err = env.imports.ImportEquipments(adminCtx(), "novo.csv", csvFile("EQ500,,Notebook,Dell,Latitude,Recife - PE,,,"), entities.ImportReplace)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, env.store.equipments, eq.ID)
	assert.Len(t, env.store.equipments, 1)
	assert.Empty(t, env.store.importLogs)
}

func TestImportEquipments_InvalidInput(t *testing.T) {
	env := newTestEnv()

	_, err := env.imports.ImportEquipments(adminCtx(), "lote.csv", csvFile("EQ1,,a,b,c,d,,,"), entities.ImportMode("append"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.imports.ImportEquipments(adminCtx(), "lote.pdf", []byte("%PDF"), entities.ImportMerge)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, env.store.importLogs)
}
