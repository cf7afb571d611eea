package domain

import "time"

// ElectricityRow is one cleaned Fingrid measurement. A zero EndTime is stored as null.
type ElectricityRow struct {
	DatasetID     int64     `parquet:"dataset_id"`
	StartTime     time.Time `parquet:"start_time,timestamp(millisecond)"`
	EndTime       time.Time `parquet:"end_time,optional,timestamp(millisecond)"`
	Value         float64   `parquet:"value"`
	Hour          int32     `parquet:"hour"`
	DayOfWeek     int32     `parquet:"day_of_week"`
	Date          string    `parquet:"date"`
	TransformedAt time.Time `parquet:"transformed_at,timestamp(millisecond)"`
	SourceBlob    string    `parquet:"source_blob"`
}

// CompanyRow is one flattened PRH company.
type CompanyRow struct {
	BusinessID       string    `parquet:"business_id"`
	Name             string    `parquet:"name"`
	RegistrationDate string    `parquet:"registration_date"`
	CompanyForm      string    `parquet:"company_form"`
	Status           string    `parquet:"status"`
	Street           string    `parquet:"street"`
	City             string    `parquet:"city"`
	PostCode         string    `parquet:"post_code"`
	TransformedAt    time.Time `parquet:"transformed_at,timestamp(millisecond)"`
}

// CategoryRow is one Statistics Finland catalog entry.
type CategoryRow struct {
	ExternalID    string    `parquet:"external_id"`
	Name          string    `parquet:"name"`
	CategoryType  string    `parquet:"category_type"`
	LastUpdated   string    `parquet:"last_updated"`
	TransformedAt time.Time `parquet:"transformed_at,timestamp(millisecond)"`
}
