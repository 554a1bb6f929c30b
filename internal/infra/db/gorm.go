package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はカートスロット用のDBに接続して *gorm.DB を返す。
// DATABASE_URL があればPostgres、無ければローカルのSQLiteファイル。
func Connect(sqlitePath string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	if sqlitePath == "" {
		sqlitePath = "melhfa.db"
	}

	// WALと busy_timeout でタブ/プロセス間の同時アクセスに耐える
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", sqlitePath)
	return gorm.Open(sqlite.Open(dsn), cfg)
}
