package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"NordicDataFlow/internal/domain"
	"NordicDataFlow/internal/ports"
)

const (
	dateLayout = "2006-01-02"
	// valueScale matches DECIMAL(10,2).
	valueScale = 2
)

// SQLWarehouse persists gold tables into SQL Server or PostgreSQL.
type SQLWarehouse struct {
	db      *sql.DB
	dialect Dialect
}

var _ ports.Warehouse = (*SQLWarehouse)(nil)

// NewSQLWarehouse wires a sql.DB implementation with its dialect.
func NewSQLWarehouse(db *sql.DB, dialect Dialect) *SQLWarehouse {
	return &SQLWarehouse{db: db, dialect: dialect}
}

// EnsureSchema creates the four gold tables when they are missing.
func (w *SQLWarehouse) EnsureSchema(ctx context.Context) error {
	for _, stmt := range w.dialect.schema {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// UpsertCompanies merges rows on business_id inside one transaction.
func (w *SQLWarehouse) UpsertCompanies(ctx context.Context, rows []domain.CompanyRow) (int, error) {
	query, err := w.dialect.rewrite(w.dialect.upsertCompany)
	if err != nil {
		return 0, fmt.Errorf("rewrite company upsert: %w", err)
	}

	return w.inTx(ctx, len(rows), func(tx *sql.Tx, i int) error {
		row := rows[i]
		_, err := tx.ExecContext(ctx, query,
			row.BusinessID,
			row.Name,
			nullableDate(row.RegistrationDate),
			row.CompanyForm,
			row.Status,
			row.City,
			row.PostCode,
		)
		if err != nil {
			return fmt.Errorf("upsert company %s: %w", row.BusinessID, err)
		}
		return nil
	})
}

// InsertElectricity appends every row to the fact table. Loading the same rows
// twice stores them twice.
func (w *SQLWarehouse) InsertElectricity(ctx context.Context, rows []domain.ElectricityRow) (int, error) {
	return w.inTx(ctx, len(rows), func(tx *sql.Tx, i int) error {
		row := rows[i]

		datasetID := row.DatasetID
		if datasetID == 0 {
			datasetID = domain.DefaultElectricityDatasetID
		}

		query, args, err := sq.Insert("fact_electricity_production").
			Columns("start_time", "end_time", "value_mw", "dataset_id", "hour_of_day", "day_of_week", "date_key").
			Values(
				row.StartTime.UTC(),
				nullableTime(row.EndTime),
				decimal.NewFromFloat(row.Value).Round(valueScale),
				datasetID,
				row.Hour,
				row.DayOfWeek,
				nullableDate(row.Date),
			).
			PlaceholderFormat(w.dialect.placeholder).
			ToSql()
		if err != nil {
			return fmt.Errorf("build electricity insert: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert electricity %s: %w", row.StartTime.Format(time.RFC3339), err)
		}
		return nil
	})
}

// UpsertCategories merges rows on external_id inside one transaction.
func (w *SQLWarehouse) UpsertCategories(ctx context.Context, rows []domain.CategoryRow) (int, error) {
	query, err := w.dialect.rewrite(w.dialect.upsertCategory)
	if err != nil {
		return 0, fmt.Errorf("rewrite category upsert: %w", err)
	}

	return w.inTx(ctx, len(rows), func(tx *sql.Tx, i int) error {
		row := rows[i]
		_, err := tx.ExecContext(ctx, query,
			row.ExternalID,
			row.Name,
			row.CategoryType,
			nullableTimestamp(row.LastUpdated),
		)
		if err != nil {
			return fmt.Errorf("upsert category %s: %w", row.ExternalID, err)
		}
		return nil
	})
}

// RecordRun appends one pipeline_runs audit row.
func (w *SQLWarehouse) RecordRun(ctx context.Context, run domain.PipelineRun) error {
	var errorMessage any
	if run.ErrorMessage != "" {
		errorMessage = run.ErrorMessage
	}

	query, args, err := sq.Insert("pipeline_runs").
		Columns("source_name", "records_processed", "status", "error_message").
		Values(run.SourceName, run.RecordsProcessed, string(run.Status), errorMessage).
		PlaceholderFormat(w.dialect.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("build pipeline run insert: %w", err)
	}

	if _, err := w.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

// Stats returns the counts and latest production value served by the read API.
func (w *SQLWarehouse) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats

	if err := w.count(ctx, "fact_electricity_production", &stats.TotalElectricity); err != nil {
		return domain.Stats{}, err
	}

	query, args, err := w.dialect.latestValue.ToSql()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("build latest value query: %w", err)
	}
	var latest decimal.Decimal
	err = w.db.QueryRowContext(ctx, query, args...).Scan(&latest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		latest = decimal.Zero
	case err != nil:
		return domain.Stats{}, fmt.Errorf("query latest value: %w", err)
	}
	stats.LatestMW = latest.InexactFloat64()

	if err := w.count(ctx, "dim_companies", &stats.TotalCompanies); err != nil {
		return domain.Stats{}, err
	}

	return stats, nil
}

// Companies reads dim_companies ordered by business_id.
func (w *SQLWarehouse) Companies(ctx context.Context) ([]domain.Company, error) {
	query, args, err := sq.Select("business_id", "name", "registration_date", "company_form", "status", "city", "post_code", "loaded_at").
		From("dim_companies").
		OrderBy("business_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build companies query: %w", err)
	}

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}

	var result []domain.Company
	for rows.Next() {
		var (
			c                                   domain.Company
			regDate, loadedAt                   sql.NullTime
			companyForm, status, city, postCode sql.NullString
		)
		if err := rows.Scan(&c.BusinessID, &c.Name, &regDate, &companyForm, &status, &city, &postCode, &loadedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan company: %w", err)
		}
		if regDate.Valid {
			c.RegistrationDate = regDate.Time.Format(dateLayout)
		}
		c.CompanyForm = companyForm.String
		c.Status = status.String
		c.City = city.String
		c.PostCode = postCode.String
		c.LoadedAt = loadedAt.Time
		result = append(result, c)
	}

	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return result, nil
}

// Electricity reads fact_electricity_production ordered by start_time.
func (w *SQLWarehouse) Electricity(ctx context.Context) ([]domain.ElectricityFact, error) {
	query, args, err := sq.Select("start_time", "end_time", "value_mw", "dataset_id", "hour_of_day", "day_of_week", "date_key", "loaded_at").
		From("fact_electricity_production").
		OrderBy("start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build electricity query: %w", err)
	}

	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query electricity: %w", err)
	}

	var result []domain.ElectricityFact
	for rows.Next() {
		var (
			f                        domain.ElectricityFact
			value                    decimal.Decimal
			endTime, dateKey, loaded sql.NullTime
			datasetID, hour, dow     sql.NullInt64
		)
		if err := rows.Scan(&f.StartTime, &endTime, &value, &datasetID, &hour, &dow, &dateKey, &loaded); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan electricity: %w", err)
		}
		f.EndTime = endTime.Time
		f.ValueMW = value.InexactFloat64()
		f.DatasetID = datasetID.Int64
		f.HourOfDay = int32(hour.Int64)
		f.DayOfWeek = int32(dow.Int64)
		if dateKey.Valid {
			f.DateKey = dateKey.Time.Format(dateLayout)
		}
		f.LoadedAt = loaded.Time
		result = append(result, f)
	}

	if err := closeRows(rows); err != nil {
		return nil, err
	}
	return result, nil
}

// inTx runs write(i) for i in [0,n) in one transaction and returns n on commit.
func (w *SQLWarehouse) inTx(ctx context.Context, n int, write func(tx *sql.Tx, i int) error) (int, error) {
	if n == 0 {
		return 0, nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	for i := 0; i < n; i++ {
		if err := write(tx, i); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return 0, fmt.Errorf("%w (rollback: %v)", err, rbErr)
			}
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func (w *SQLWarehouse) count(ctx context.Context, table string, dst *int) error {
	query, args, err := sq.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return fmt.Errorf("build count %s: %w", table, err)
	}
	if err := w.db.QueryRowContext(ctx, query, args...).Scan(dst); err != nil {
		return fmt.Errorf("count %s: %w", table, err)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return fmt.Errorf("rows iteration: %w", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return fmt.Errorf("close rows: %w", closeErr)
	}
	return nil
}

// nullableDate keeps valid YYYY-MM-DD strings and maps everything else to NULL.
func nullableDate(value string) any {
	value = strings.TrimSpace(value)
	if len(value) > len(dateLayout) {
		value = value[:len(dateLayout)]
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return nil
	}
	return value
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// nullableTimestamp parses the catalog's "updated" field; unparseable values become NULL.
func nullableTimestamp(value string) any {
	t, err := domain.ParseTimestamp(value)
	if err != nil {
		return nil
	}
	return t.UTC()
}
