package database

import (
	"fmt"
	stdlog "log"
	"time"

	"github.com/daily-ledger/internal/config"
	"github.com/daily-ledger/internal/models"
	"github.com/daily-ledger/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database and sets up the connection pool.
func Open(cfg config.DatabaseConfig, mode string) (*gorm.DB, error) {
	level := gormlogger.Info
	if mode == "release" {
		level = gormlogger.Warn
	}
	gormLogger := gormlogger.New(
		stdlog.New(logger.Writer(), "", 0),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return db, nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.DailyRecord{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() == "postgres" {
		if err := ensureDailyRecordUserFK(db); err != nil {
			return fmt.Errorf("ensure daily_records -> users FK: %w", err)
		}
	}
	return nil
}

// ensureDailyRecordUserFK adds the cascading foreign key from daily_records
// to users when it is missing. Models carry no relation fields, so AutoMigrate
// does not create it.
func ensureDailyRecordUserFK(db *gorm.DB) error {
	var n int64
	err := db.Raw(`SELECT count(*) FROM pg_constraint WHERE conname = 'fk_daily_records_user'`).Scan(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return db.Exec(`ALTER TABLE daily_records
		ADD CONSTRAINT fk_daily_records_user
		FOREIGN KEY (user_id) REFERENCES users(id)
		ON DELETE CASCADE`).Error
}
