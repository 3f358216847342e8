package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"card-server/internal/infrastructure/config"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	// 実際のDB接続はテスト環境に依存するため、接続文字列のみ検証する
	cfg := &config.DatabaseConfig{
		Host:            "localhost",
		Port:            3306,
		User:            "root",
		Password:        "password",
		Database:        "card_db",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}

	dsn := cfg.DSN()
	assert.Equal(t, "root:password@tcp(localhost:3306)/card_db?charset=utf8mb4&parseTime=True&loc=Local", dsn)
}
