package storage

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Dialect captures the SQL that differs between SQL Server and PostgreSQL.
type Dialect struct {
	Name        string
	DriverName  string
	placeholder sq.PlaceholderFormat
	schema      []string
	// upserts are written with ? placeholders and rewritten per dialect
	upsertCompany  string
	upsertCategory string
	latestValue    sq.SelectBuilder
}

// DialectFor returns the dialect registered for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlserver", "mssql", "":
		return SQLServer(), nil
	case "postgres", "postgresql", "pgx":
		return Postgres(), nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SQLServer targets SQL Server and Azure SQL Database through go-mssqldb.
func SQLServer() Dialect {
	return Dialect{
		Name:        "sqlserver",
		DriverName:  "sqlserver",
		placeholder: sq.AtP,
		schema: []string{
			`IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='dim_companies' AND xtype='U')
CREATE TABLE dim_companies (
    company_id INT IDENTITY(1,1) PRIMARY KEY,
    business_id NVARCHAR(50) UNIQUE NOT NULL,
    name NVARCHAR(255) NOT NULL,
    registration_date DATE,
    company_form NVARCHAR(100),
    status NVARCHAR(50),
    city NVARCHAR(100),
    post_code NVARCHAR(20),
    loaded_at DATETIME2 DEFAULT GETUTCDATE()
)`,
			`IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='fact_electricity_production' AND xtype='U')
CREATE TABLE fact_electricity_production (
    record_id INT IDENTITY(1,1) PRIMARY KEY,
    start_time DATETIME2 NOT NULL,
    end_time DATETIME2,
    value_mw DECIMAL(10,2) NOT NULL,
    dataset_id INT,
    hour_of_day INT,
    day_of_week INT,
    date_key DATE,
    loaded_at DATETIME2 DEFAULT GETUTCDATE()
)`,
			`IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='dim_stat_categories' AND xtype='U')
CREATE TABLE dim_stat_categories (
    category_id INT IDENTITY(1,1) PRIMARY KEY,
    external_id NVARCHAR(100) UNIQUE NOT NULL,
    name NVARCHAR(255) NOT NULL,
    category_type NVARCHAR(50),
    last_updated DATETIME2,
    loaded_at DATETIME2 DEFAULT GETUTCDATE()
)`,
			`IF NOT EXISTS (SELECT * FROM sysobjects WHERE name='pipeline_runs' AND xtype='U')
CREATE TABLE pipeline_runs (
    run_id INT IDENTITY(1,1) PRIMARY KEY,
    run_timestamp DATETIME2 DEFAULT GETUTCDATE(),
    source_name NVARCHAR(50),
    records_processed INT,
    status NVARCHAR(20),
    error_message NVARCHAR(MAX)
)`,
		},
		upsertCompany: `MERGE dim_companies AS target
USING (SELECT ? AS business_id, ? AS name, ? AS registration_date, ? AS company_form, ? AS status, ? AS city, ? AS post_code) AS source
ON target.business_id = source.business_id
WHEN MATCHED THEN
    UPDATE SET name = source.name,
               registration_date = source.registration_date,
               company_form = source.company_form,
               status = source.status,
               city = source.city,
               post_code = source.post_code,
               loaded_at = GETUTCDATE()
WHEN NOT MATCHED THEN
    INSERT (business_id, name, registration_date, company_form, status, city, post_code)
    VALUES (source.business_id, source.name, source.registration_date, source.company_form, source.status, source.city, source.post_code);`,
		upsertCategory: `MERGE dim_stat_categories AS target
USING (SELECT ? AS external_id, ? AS name, ? AS category_type, ? AS last_updated) AS source
ON target.external_id = source.external_id
WHEN MATCHED THEN
    UPDATE SET name = source.name,
               category_type = source.category_type,
               last_updated = source.last_updated,
               loaded_at = GETUTCDATE()
WHEN NOT MATCHED THEN
    INSERT (external_id, name, category_type, last_updated)
    VALUES (source.external_id, source.name, source.category_type, source.last_updated);`,
		latestValue: sq.Select("TOP 1 value_mw").
			From("fact_electricity_production").
			OrderBy("start_time DESC"),
	}
}

// Postgres targets PostgreSQL through the pgx stdlib driver.
func Postgres() Dialect {
	return Dialect{
		Name:        "postgres",
		DriverName:  "pgx",
		placeholder: sq.Dollar,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS dim_companies (
    company_id SERIAL PRIMARY KEY,
    business_id VARCHAR(50) UNIQUE NOT NULL,
    name VARCHAR(255) NOT NULL,
    registration_date DATE,
    company_form VARCHAR(100),
    status VARCHAR(50),
    city VARCHAR(100),
    post_code VARCHAR(20),
    loaded_at TIMESTAMP DEFAULT (NOW() AT TIME ZONE 'utc')
)`,
			`CREATE TABLE IF NOT EXISTS fact_electricity_production (
    record_id SERIAL PRIMARY KEY,
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP,
    value_mw DECIMAL(10,2) NOT NULL,
    dataset_id INT,
    hour_of_day INT,
    day_of_week INT,
    date_key DATE,
    loaded_at TIMESTAMP DEFAULT (NOW() AT TIME ZONE 'utc')
)`,
			`CREATE TABLE IF NOT EXISTS dim_stat_categories (
    category_id SERIAL PRIMARY KEY,
    external_id VARCHAR(100) UNIQUE NOT NULL,
    name VARCHAR(255) NOT NULL,
    category_type VARCHAR(50),
    last_updated TIMESTAMP,
    loaded_at TIMESTAMP DEFAULT (NOW() AT TIME ZONE 'utc')
)`,
			`CREATE TABLE IF NOT EXISTS pipeline_runs (
    run_id SERIAL PRIMARY KEY,
    run_timestamp TIMESTAMP DEFAULT (NOW() AT TIME ZONE 'utc'),
    source_name VARCHAR(50),
    records_processed INT,
    status VARCHAR(20),
    error_message TEXT
)`,
		},
		upsertCompany: `INSERT INTO dim_companies (business_id, name, registration_date, company_form, status, city, post_code)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (business_id) DO UPDATE
SET name = EXCLUDED.name,
    registration_date = EXCLUDED.registration_date,
    company_form = EXCLUDED.company_form,
    status = EXCLUDED.status,
    city = EXCLUDED.city,
    post_code = EXCLUDED.post_code,
    loaded_at = NOW() AT TIME ZONE 'utc'`,
		upsertCategory: `INSERT INTO dim_stat_categories (external_id, name, category_type, last_updated)
VALUES (?, ?, ?, ?)
ON CONFLICT (external_id) DO UPDATE
SET name = EXCLUDED.name,
    category_type = EXCLUDED.category_type,
    last_updated = EXCLUDED.last_updated,
    loaded_at = NOW() AT TIME ZONE 'utc'`,
		latestValue: sq.Select("value_mw").
			From("fact_electricity_production").
			OrderBy("start_time DESC").
			Limit(1),
	}
}

func (d Dialect) rewrite(query string) (string, error) {
	return d.placeholder.ReplacePlaceholders(query)
}
