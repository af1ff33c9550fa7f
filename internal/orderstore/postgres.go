package orderstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/orderforge/order-export-conversion/internal/types"
)

// =============================================================================
// POSTGRES STORE
// =============================================================================

// PostgresConfig holds the connection settings for the production store.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// orderRecord is the persisted shape of a RawRecord. The raw export fields
// live in a JSONB column; the order date is broken out so the report window
// predicate can use an index.
type orderRecord struct {
	ID         uint      `gorm:"primaryKey"`
	Collection string    `gorm:"index:idx_order_records_window,priority:1"`
	OrderDate  time.Time `gorm:"index:idx_order_records_window,priority:2"`
	Fields     datatypes.JSONMap
}

func (orderRecord) TableName() string { return "order_records" }

// PostgresStore is the GORM-backed Store implementation.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to Postgres, configures the connection pool and
// migrates the order_records table. A connection failure is reported as
// ErrStoreUnavailable.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&orderRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate order_records: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// ReplaceAll implements Store. The delete and the insert run in a single
// transaction so a reader never observes a half-replaced collection.
func (s *PostgresStore) ReplaceAll(ctx context.Context, collection string, records []types.RawRecord) error {
	rows := make([]orderRecord, len(records))
	for i, record := range records {
		rows[i] = orderRecord{
			Collection: collection,
			OrderDate:  record.OrderDate,
			Fields:     toJSONMap(record.Fields),
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", collection).Delete(&orderRecord{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace collection %q: %w", collection, err)
	}

	return nil
}

// Query implements Store. The window predicates hit the (collection,
// order_date) index; the cancellation flag is matched inside the JSONB
// column. Insertion order is preserved via the surrogate key.
func (s *PostgresStore) Query(ctx context.Context, collection string, filter Filter) ([]types.RawRecord, error) {
	q := s.db.WithContext(ctx).Model(&orderRecord{}).Where("collection = ?", collection)

	if !filter.PlacedAfter.IsZero() {
		q = q.Where("order_date > ?", filter.PlacedAfter)
	}
	if !filter.PlacedBefore.IsZero() {
		q = q.Where("order_date < ?", filter.PlacedBefore)
	}
	if filter.CancellationFlag != "" {
		q = q.Where(datatypes.JSONQuery("fields").Equals(filter.CancellationFlag, types.FieldBuyerCancel))
	}

	var rows []orderRecord
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", collection, err)
	}

	records := make([]types.RawRecord, len(rows))
	for i, row := range rows {
		records[i] = types.RawRecord{
			Fields:    fromJSONMap(row.Fields),
			OrderDate: row.OrderDate,
		}
	}

	return records, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toJSONMap(fields map[string]string) datatypes.JSONMap {
	m := make(datatypes.JSONMap, len(fields))
	for k, v := range fields {
		m[k] = v
	}
	return m
}

func fromJSONMap(m datatypes.JSONMap) map[string]string {
	fields := make(map[string]string, len(m))
	for k, v := range m {
		switch value := v.(type) {
		case string:
			fields[k] = value
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprintf("%v", value)
		}
	}
	return fields
}
