package domain

import "time"

// DefaultElectricityDatasetID is used when a measurement carries no dataset id.
const DefaultElectricityDatasetID = 192

// Company mirrors a dim_companies row.
type Company struct {
	BusinessID       string    `parquet:"business_id"`
	Name             string    `parquet:"name"`
	RegistrationDate string    `parquet:"registration_date"`
	CompanyForm      string    `parquet:"company_form"`
	Status           string    `parquet:"status"`
	City             string    `parquet:"city"`
	PostCode         string    `parquet:"post_code"`
	LoadedAt         time.Time `parquet:"loaded_at,timestamp(millisecond)"`
}

// ElectricityFact mirrors a fact_electricity_production row.
type ElectricityFact struct {
	StartTime time.Time `parquet:"start_time,timestamp(millisecond)"`
	EndTime   time.Time `parquet:"end_time,optional,timestamp(millisecond)"`
	ValueMW   float64   `parquet:"value_mw"`
	DatasetID int64     `parquet:"dataset_id"`
	HourOfDay int32     `parquet:"hour_of_day"`
	DayOfWeek int32     `parquet:"day_of_week"`
	DateKey   string    `parquet:"date_key"`
	LoadedAt  time.Time `parquet:"loaded_at,timestamp(millisecond)"`
}

// StatCategory mirrors a dim_stat_categories row.
type StatCategory struct {
	ExternalID   string
	Name         string
	CategoryType string
	LastUpdated  time.Time
	LoadedAt     time.Time
}

// RunStatus is the literal stored in pipeline_runs.status.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// PipelineRun is one audit row.
type PipelineRun struct {
	RunTimestamp     time.Time
	SourceName       string
	RecordsProcessed int
	Status           RunStatus
	ErrorMessage     string
}

// Stats is the read-API summary of the gold tables.
type Stats struct {
	LatestMW         float64
	TotalElectricity int
	TotalCompanies   int
}
