package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pem-system/internal/entities"
	apperrors "pem-system/pkg/errors"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// importRecord - строка файла импорта с каноническими именами полей.
// Отсутствие ключа означает, что колонки не было в файле.
type importRecord struct {
	Line   int
	Fields map[string]string
}

func (r importRecord) value(field string) (string, bool) {
	v, ok := r.Fields[field]
	return strings.TrimSpace(v), ok
}

const (
	fieldCode            = "code"
	fieldSerialNumber    = "serial_number"
	fieldType            = "type"
	fieldBrand           = "brand"
	fieldModel           = "model"
	fieldLocation        = "location"
	fieldStatus          = "status"
	fieldAcquisitionDate = "acquisition_date"
	fieldObservations    = "observations"
)

// headerAliases: нормализованный заголовок -> каноническое поле.
var headerAliases = map[string]string{
	"codigo": fieldCode, "code": fieldCode,
	"numerodeserie": fieldSerialNumber, "numeroserie": fieldSerialNumber, "serialnumber": fieldSerialNumber, "serial": fieldSerialNumber,
	"tipo": fieldType, "type": fieldType,
	"marca": fieldBrand, "brand": fieldBrand,
	"modelo": fieldModel, "model": fieldModel,
	"localizacao": fieldLocation, "location": fieldLocation, "local": fieldLocation,
	"situacao": fieldStatus, "status": fieldStatus,
	"datadeaquisicao": fieldAcquisitionDate, "dataaquisicao": fieldAcquisitionDate, "acquisitiondate": fieldAcquisitionDate,
	"observacoes": fieldObservations, "observations": fieldObservations, "obs": fieldObservations,
}

// statusAliases принимает коды, португальские коды и подписи статусов.
var statusAliases = map[string]entities.EquipmentStatus{
	"instock": entities.EquipmentInStock, "emestoque": entities.EquipmentInStock, "estoque": entities.EquipmentInStock,
	"shipped": entities.EquipmentShipped, "enviado": entities.EquipmentShipped,
	"inmaintenance": entities.EquipmentInMaintenance, "manutencao": entities.EquipmentInMaintenance, "emmanutencao": entities.EquipmentInMaintenance,
	"returned": entities.EquipmentReturned, "devolvido": entities.EquipmentReturned,
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
	" ", "", "_", "", "-", "", ".", "",
)

func normalizeKey(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// parseImportStatus: пустой или неизвестный статус даёт in_stock.
func parseImportStatus(raw string) (entities.EquipmentStatus, bool) {
	status, ok := statusAliases[normalizeKey(raw)]
	if !ok {
		return entities.EquipmentInStock, false
	}
	return status, true
}

func canonicalRecord(line int, raw map[string]string) importRecord {
	record := importRecord{Line: line, Fields: make(map[string]string, len(raw))}
	for header, value := range raw {
		field, ok := headerAliases[normalizeKey(header)]
		if !ok {
			continue
		}
		// при дублирующихся колонках побеждает непустое значение
		if existing := record.Fields[field]; existing != "" && strings.TrimSpace(value) == "" {
			continue
		}
		record.Fields[field] = value
	}
	return record
}

// parseImportFile выбирает разбор по расширению файла.
func parseImportFile(fileName string, content []byte) (string, []importRecord, error) {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	var (
		records []importRecord
		err     error
	)
	switch fileType {
	case "json":
		records, err = parseJSONRecords(content)
	case "csv":
		records, err = parseDelimitedRecords(content, ',', "CSV")
	case "txt":
		records, err = parseDelimitedRecords(content, detectTextDelimiter(content), "TXT")
	case "xlsx":
		records, err = parseXLSXRecords(content)
	default:
		return fileType, nil, apperrors.NewValidationError("Formato de arquivo não suportado: %s", fileType)
	}
	if err != nil {
		return fileType, nil, err
	}
	if len(records) == 0 {
		return fileType, nil, apperrors.NewValidationError("Nenhum registro encontrado no arquivo")
	}
	return fileType, records, nil
}

func parseJSONRecords(content []byte) ([]importRecord, error) {
	if !gjson.ValidBytes(content) {
		return nil, apperrors.NewValidationError("Arquivo JSON inválido")
	}
	root := gjson.ParseBytes(content)
	if root.IsObject() {
		// допускаем обёртку вида {"equipments": [...]}
		for _, key := range []string{"equipments", "equipamentos", "data", "body"} {
			if nested := root.Get(key); nested.IsArray() {
				root = nested
				break
			}
		}
	}
	if !root.IsArray() {
		return nil, apperrors.NewValidationError("Arquivo JSON inválido: esperado um array de registros")
	}

	records := make([]importRecord, 0)
	for i, item := range root.Array() {
		if !item.IsObject() {
			return nil, apperrors.NewValidationError("Registro %d do JSON não é um objeto", i+1)
		}
		raw := make(map[string]string)
		item.ForEach(func(key, value gjson.Result) bool {
			if value.Type != gjson.Null {
				raw[key.String()] = value.String()
			}
			return true
		})
		records = append(records, canonicalRecord(i+1, raw))
	}
	return records, nil
}

func detectTextDelimiter(content []byte) rune {
	firstLine, _, _ := bytes.Cut(content, []byte("\n"))
	if bytes.Count(firstLine, []byte("\t")) >= bytes.Count(firstLine, []byte(";")) && bytes.Contains(firstLine, []byte("\t")) {
		return '\t'
	}
	return ';'
}

func parseDelimitedRecords(content []byte, delimiter rune, kind string) ([]importRecord, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewValidationError("Arquivo %s inválido: %s", kind, err.Error())
		}
		rows = append(rows, row)
	}
	return recordsFromRows(rows, kind)
}

func parseXLSXRecords(content []byte) ([]importRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, apperrors.NewValidationError("Arquivo XLSX inválido: %s", err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("Arquivo XLSX sem planilhas")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения листа %s: %w", sheets[0], err)
	}
	return recordsFromRows(rows, "XLSX")
}

// recordsFromRows: первая непустая строка - заголовок, пустые строки пропускаются.
func recordsFromRows(rows [][]string, kind string) ([]importRecord, error) {
	headerIdx := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 || headerIdx == len(rows)-1 {
		return nil, apperrors.NewValidationError("Arquivo %s inválido: deve conter cabeçalho e pelo menos uma linha de dados", kind)
	}

	header := rows[headerIdx]
	records := make([]importRecord, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlankRow(row) {
			continue
		}
		raw := make(map[string]string, len(header))
		for col, name := range header {
			value := ""
			if col < len(row) {
				value = row[col]
			}
			raw[strings.Trim(strings.TrimSpace(name), `"`)] = value
		}
		records = append(records, canonicalRecord(i+1, raw))
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
