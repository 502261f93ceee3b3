package database

import (
	"context"
	"fmt"
	"time"

	"chat_delivery_service/pkg/logger"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PostgresDSN build a postgres url
func PostgresDSN(user, password, host string, port int, db string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, password, host, port, db)
}

// NewDatabaseConnection create a new postgresSQL pool with retry
func NewDatabaseConnection(ctx context.Context, d Connection) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	dbConfig, err := pgxpool.ParseConfig(d.ConnectStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	for i := 0; i < max(d.RetryCount, 1); i++ {
		pool, err = pgxpool.ConnectConfig(ctx, dbConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.Log.Warn(
			"Failed to connect to postgreSQL database, retrying...",
			zap.Int("attempt", i+1),
			zap.String("host", dbConfig.ConnConfig.Host),
			zap.Error(err),
		)
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, err
}

// NewPGConnection create a gorm postgres connection with retry
func NewPGConnection(d Connection) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	for i := 0; i < max(d.RetryCount, 1); i++ {
		db, err = gorm.Open(postgres.Open(d.ConnectStr), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if err == nil {
			return db, nil
		}
		logger.Log.Warn("Failed to open gorm postgres, retrying...", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(d.RetryInterval * time.Second)
	}
	return nil, err
}
