package validation

import (
	"bytes"
	"errors"
	"mime/multipart"
	"testing"

	"pem-system/internal/dto"
	apperrors "pem-system/pkg/errors"

	"github.com/aarondl/null/v8"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldTags(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "ожидались ошибки валидатора, получено: %v", err)
	tags := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func TestValidate_CreateEquipment(t *testing.T) {
	v := New()

	valid := dto.CreateEquipmentDTO{Code: "EQ010", Type: "Notebook", Brand: "Dell", Model: "Latitude", Location: "São Paulo"}
	assert.NoError(t, v.Validate(valid))

	invalid := dto.CreateEquipmentDTO{
		Code:            "   ",
		Type:            "Notebook",
		Brand:           "Dell",
		Model:           "Latitude",
		Location:        "São Paulo",
		Status:          null.StringFrom("lost"),
		AcquisitionDate: null.StringFrom("ontem"),
	}
	tags := fieldTags(t, v.Validate(invalid))
	assert.Equal(t, "notblank", tags["code"])
	assert.Equal(t, "equipment_status", tags["status"])
	assert.Equal(t, "flexdate", tags["acquisition_date"])
}

func TestValidate_NullFieldsAreOptional(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(dto.UpdateShipmentDTO{}))
	assert.NoError(t, v.Validate(dto.UpdateShipmentDTO{Status: null.StringFrom("delivered")}))

	tags := fieldTags(t, v.Validate(dto.UpdateShipmentDTO{Status: null.StringFrom("lost")}))
	assert.Equal(t, "shipment_status", tags["status"])
}

func TestValidate_ImportMode(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(dto.ImportRequestDTO{}))
	assert.NoError(t, v.Validate(dto.ImportRequestDTO{Mode: "replace"}))
	assert.Error(t, v.Validate(dto.ImportRequestDTO{Mode: "append"}))
}

func multipartFile(t *testing.T, name string, content []byte) (*multipart.FileHeader, multipart.File) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	header := form.File["file"][0]
	file, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })
	return header, file
}

func TestValidateFile(t *testing.T) {
	header, file := multipartFile(t, "equipamentos.csv", []byte("codigo,tipo\nEQ001,Notebook\n"))
	assert.NoError(t, ValidateFile(header, file, "equipment_import"))

	header, file = multipartFile(t, "equipamentos.pdf", []byte("%PDF-1.4"))
	err := ValidateFile(header, file, "equipment_import")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	header, file = multipartFile(t, "planilha.xlsx", []byte("codigo,tipo\n"))
	err = ValidateFile(header, file, "equipment_import")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	header, file = multipartFile(t, "vazio.json", nil)
	assert.ErrorIs(t, ValidateFile(header, file, "equipment_import"), apperrors.ErrValidation)

	assert.Error(t, ValidateFile(header, file, "avatar"))
}
