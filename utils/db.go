package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var DB *sql.DB

// InitDB initializes the PostgreSQL database connection
func InitDB(logger *zap.Logger, cfg PGConfig) error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DB, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	logger.Info("Database connection established successfully")

	return nil
}

// CreateSchema creates the run audit table if it doesn't exist
func CreateSchema(logger *zap.Logger) error {
	if DB == nil {
		return fmt.Errorf("database connection is nil; call InitDB first")
	}

	ctx := context.Background()

	_, err := DB.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS analysis_runs (
            run_id TEXT PRIMARY KEY,
            file_name TEXT NOT NULL,
            size_bytes BIGINT NOT NULL,
            mime_type VARCHAR(100) NOT NULL,
            analysis_type VARCHAR(64) NOT NULL,
            fallback_reason VARCHAR(64),
            state_path TEXT NOT NULL,
            segment_count INT NOT NULL DEFAULT 0,
            engagement_score INT NOT NULL DEFAULT 0,
            duration_ms BIGINT NOT NULL,
            finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return fmt.Errorf("failed to create analysis_runs table: %w", err)
	}

	// Tables created with the earlier VARCHAR(255) column are widened in place.
	_, err = DB.ExecContext(ctx, `ALTER TABLE analysis_runs ALTER COLUMN file_name TYPE TEXT`)
	if err != nil {
		return fmt.Errorf("failed to widen file_name column: %w", err)
	}

	_, err = DB.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON analysis_runs(finished_at);
        CREATE INDEX IF NOT EXISTS idx_runs_analysis_type ON analysis_runs(analysis_type);
    `)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Info("Database schema created successfully")
	return nil
}

// CloseDB closes the database connection
func CloseDB(logger *zap.Logger) error {
	if DB != nil {
		logger.Info("Closing database connection")
		return DB.Close()
	}
	return nil
}
