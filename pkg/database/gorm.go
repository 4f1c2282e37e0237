package database

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes the pool and SQL logging. The zero value is usable.
type Options struct {
	// Verbose logs every statement; otherwise only slow queries and errors
	Verbose      bool
	MaxIdleConns int
	MaxOpenConns int
	SlowQuery    time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = 5
	}
	if o.MaxOpenConns <= 0 {
		o.MaxOpenConns = 20
	}
	if o.SlowQuery <= 0 {
		o.SlowQuery = 200 * time.Millisecond
	}
	return o
}

func newLogger(o Options) logger.Interface {
	level := logger.Warn
	if o.Verbose {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             o.SlowQuery,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			// journal and message text must not reach the SQL log
			ParameterizedQueries: true,
			Colorful:             o.Verbose,
		},
	)
}

// NewGormDBFromDSN opens a postgres connection with a pool sized for a handful of
// concurrent users
func NewGormDBFromDSN(dsn string, opts ...Options) (*gorm.DB, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	o = o.withDefaults()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger(o)})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Ping checks the underlying connection for readiness probes
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
