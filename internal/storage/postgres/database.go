package postgres

import (
	"fmt"
	"log"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"

	"github.com/nstepa/inkpost/internal/config"
	"github.com/nstepa/inkpost/models"
)

var DB *gorm.DB

// GetDB returns the package-level connection (mainly for tests).
func GetDB() *gorm.DB {
	return DB
}

// InitDB connects to PostgreSQL using the DB_* environment variables and sets
// the package-level connection.
func InitDB() error {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetEnv("DB_HOST"),
		config.GetEnv("DB_USER"),
		config.GetEnv("DB_PASSWORD"),
		config.GetEnv("DB_NAME"),
		config.GetEnv("DB_PORT"),
		config.GetEnvDefault("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	DB = db
	log.Println("Successfully connected to the database.")
	return nil
}

// Migrate creates or updates the schema for every model, including the
// unique indexes the domain invariants rely on (slugs, emails, one reaction
// per comment and user).
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Category{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.CommentReaction{},
		&models.NewsletterSubscriber{},
	).Error
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB == nil {
		return nil
	}

	if err := DB.Close(); err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}

	log.Println("Database connection closed.")
	return nil
}

// InitDBWithConnection injects a connection, used by tests to run against an
// in-memory SQLite database.
func InitDBWithConnection(db *gorm.DB) {
	DB = db
}
