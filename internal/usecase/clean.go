package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"NordicDataFlow/internal/domain"
)

// fingridRecord is one measurement as Fingrid returns it.
type fingridRecord struct {
	DatasetID json.RawMessage `json:"datasetId"`
	StartTime string          `json:"startTime"`
	EndTime   string          `json:"endTime"`
	Value     json.RawMessage `json:"value"`
}

// cleanElectricity parses timestamps, derives calendar fields from the wall
// clock the upstream reported, drops negative or non-numeric values and rows
// without a usable startTime, then removes exact duplicates keeping the first.
// Stored times are UTC; a missing or unparseable endTime stays zero.
func cleanElectricity(records []fingridRecord, sourceBlob string, transformedAt time.Time) []domain.ElectricityRow {
	rows := make([]domain.ElectricityRow, 0, len(records))
	seen := make(map[domain.ElectricityRow]struct{}, len(records))

	for _, rec := range records {
		local, err := domain.ParseTimestamp(rec.StartTime)
		if err != nil {
			continue
		}
		value, ok := coerceFloat(rec.Value)
		if !ok || value < 0 {
			continue
		}

		var end time.Time
		if t, err := domain.ParseTimestamp(rec.EndTime); err == nil {
			end = t.UTC()
		}
		datasetID, _ := coerceInt(rec.DatasetID)

		row := domain.ElectricityRow{
			DatasetID:     datasetID,
			StartTime:     local.UTC(),
			EndTime:       end,
			Value:         value,
			Hour:          int32(local.Hour()),
			DayOfWeek:     mondayFirst(local.Weekday()),
			Date:          local.Format("2006-01-02"),
			TransformedAt: transformedAt,
			SourceBlob:    sourceBlob,
		}
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		rows = append(rows, row)
	}

	return rows
}

// cleanCompanies flattens PRH results and keeps the first row per business_id.
// Both the flat legacy shape and the v3 shape ({value: ...} identifiers,
// names[], companyForms[], postOffices[]) are understood.
func cleanCompanies(records []map[string]json.RawMessage, transformedAt time.Time) []domain.CompanyRow {
	rows := make([]domain.CompanyRow, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		row := domain.CompanyRow{
			BusinessID:       valueString(rec["businessId"]),
			Name:             valueString(rec["name"]),
			RegistrationDate: valueString(rec["registrationDate"]),
			CompanyForm:      valueString(rec["companyForm"]),
			Status:           valueString(rec["status"]),
			TransformedAt:    transformedAt,
		}

		if row.Name == "" {
			row.Name = firstField(rec["names"], "name")
		}
		if row.RegistrationDate == "" {
			row.RegistrationDate = fieldString(rec["businessId"], "registrationDate")
		}
		if row.CompanyForm == "" {
			row.CompanyForm = companyFormOf(rec["companyForms"])
		}

		var addresses []map[string]json.RawMessage
		if err := json.Unmarshal(rec["addresses"], &addresses); err == nil && len(addresses) > 0 {
			addr := addresses[0]
			row.Street = valueString(addr["street"])
			row.City = valueString(addr["city"])
			if row.City == "" {
				row.City = firstField(addr["postOffices"], "city")
			}
			row.PostCode = valueString(addr["postCode"])
		}

		if _, dup := seen[row.BusinessID]; dup {
			continue
		}
		seen[row.BusinessID] = struct{}{}
		rows = append(rows, row)
	}

	return rows
}

// cleanCategories maps catalog entries one to one.
func cleanCategories(records []map[string]json.RawMessage, transformedAt time.Time) []domain.CategoryRow {
	rows := make([]domain.CategoryRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, domain.CategoryRow{
			ExternalID:    valueString(rec["id"]),
			Name:          valueString(rec["text"]),
			CategoryType:  valueString(rec["type"]),
			LastUpdated:   valueString(rec["updated"]),
			TransformedAt: transformedAt,
		})
	}
	return rows
}

// mondayFirst numbers weekdays Monday=0 .. Sunday=6.
func mondayFirst(day time.Weekday) int32 {
	return int32((int(day) + 6) % 7)
}

// coerceFloat accepts JSON numbers and numeric strings.
func coerceFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number, true
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return 0, false
	}
	number, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

func coerceInt(raw json.RawMessage) (int64, bool) {
	number, ok := coerceFloat(raw)
	if !ok || number != math.Trunc(number) {
		return 0, false
	}
	return int64(number), true
}

// valueString renders strings, numbers and {"value": ...} wrappers as text;
// anything else (null, arrays, absent) is "".
func valueString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		return number.String()
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if inner, ok := wrapped["value"]; ok {
			return valueString(inner)
		}
	}
	return ""
}

func fieldString(raw json.RawMessage, field string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	return valueString(obj[field])
}

func firstField(raw json.RawMessage, field string) string {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return ""
	}
	return valueString(items[0][field])
}

// companyFormOf prefers the English description ("3") of the first company form.
func companyFormOf(raw json.RawMessage) string {
	var forms []struct {
		Type         json.RawMessage `json:"type"`
		Descriptions []struct {
			LanguageCode json.RawMessage `json:"languageCode"`
			Description  string          `json:"description"`
		} `json:"descriptions"`
	}
	if err := json.Unmarshal(raw, &forms); err != nil || len(forms) == 0 {
		return ""
	}

	form := forms[0]
	for _, d := range form.Descriptions {
		if valueString(d.LanguageCode) == "3" && d.Description != "" {
			return d.Description
		}
	}
	if len(form.Descriptions) > 0 && form.Descriptions[0].Description != "" {
		return form.Descriptions[0].Description
	}
	return valueString(form.Type)
}
