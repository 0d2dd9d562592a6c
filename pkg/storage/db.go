package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sitheefoods/storefront-backend/pkg/config"
)

// slotRecord is the single table backing the database slot store.
type slotRecord struct {
	Name      string `gorm:"primaryKey;size:255"`
	Payload   []byte
	UpdatedAt time.Time
}

func (slotRecord) TableName() string { return "storage_slots" }

// DBStore keeps slots in a relational database via GORM. SQLite serves the
// single-node deployment; postgres serves anything shared.
type DBStore struct {
	conn *gorm.DB
}

// NewDBStore opens the configured database, applies pool settings, and
// migrates the slots table.
func NewDBStore(ctx context.Context, cfg config.DBConfig) (*DBStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("storage: postgres DSN is required")
		}
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("storage: sqlite path is required")
		}
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("storage: unknown db driver %q", cfg.Driver)
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: getting sql db handle: %w", err)
	}
	applyPoolSettings(sqlDB, cfg)

	if err := conn.WithContext(ctx).AutoMigrate(&slotRecord{}); err != nil {
		return nil, fmt.Errorf("storage: migrating slots table: %w", err)
	}

	return &DBStore{conn: conn}, nil
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func (d *DBStore) Get(ctx context.Context, name string) ([]byte, error) {
	var record slotRecord
	err := d.conn.WithContext(ctx).First(&record, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("storage: read slot %q: %w", name, err)
	}
	return record.Payload, nil
}

func (d *DBStore) Set(ctx context.Context, name string, payload []byte) error {
	record := slotRecord{Name: name, Payload: payload, UpdatedAt: time.Now().UTC()}
	err := d.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("storage: write slot %q: %w", name, err)
	}
	return nil
}

func (d *DBStore) Delete(ctx context.Context, name string) error {
	if err := d.conn.WithContext(ctx).Delete(&slotRecord{}, "name = ?", name).Error; err != nil {
		return fmt.Errorf("storage: delete slot %q: %w", name, err)
	}
	return nil
}

func (d *DBStore) Ping(ctx context.Context) error {
	sqlDB, err := d.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DBStore) Close() error {
	sqlDB, err := d.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
