package db

import (
	"database/sql"
	"fmt"
	"log"

	"tipwave/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createTracksTable(); err != nil {
		return err
	}
	log.Println("Database initialization completed.")
	return nil
}

func createTracksTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tracks (
		id CHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255),
		album VARCHAR(255),
		filename VARCHAR(512) NOT NULL UNIQUE,
		url VARCHAR(512) NOT NULL,
		streaming_url VARCHAR(512) NOT NULL,
		file_size BIGINT UNSIGNED NOT NULL,
		mime_type VARCHAR(100) NOT NULL,
		duration INT,
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT,
		genre VARCHAR(32),
		play_count BIGINT UNSIGNED NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_tracks_artist (artist),
		INDEX idx_tracks_genre (genre),
		INDEX idx_tracks_created_at (created_at)
	);
	`
	if _, err := DB.Exec(query); err != nil {
		return fmt.Errorf("failed to create tracks table: %w", err)
	}

	log.Println("Tracks table initialized successfully (or already exists).")
	return nil
}
