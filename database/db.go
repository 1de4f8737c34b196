package database

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"jofotara-backend/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"jofotara-backend/models"
)

var DB *gorm.DB

// Connect opens the shared Postgres connection from env configuration.
func Connect() {
	log := logger.WithComponent("database")

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "db"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable TimeZone=Asia/Amman",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	log.Info().Str("host", host).Msg("database connected")
}

// AutoMigrate applies the public-schema tables (auth + tenant registry).
func AutoMigrate() {
	if err := DB.AutoMigrate(&models.ContactPerson{}, &models.Company{}, &models.User{}); err != nil {
		log := logger.WithComponent("database")
		log.Fatal().Err(err).Msg("public schema migration failed")
	}
}

// GetTenantDB returns a *gorm.DB bound to the request's tenant. Prefers the
// per-request transaction opened by middlewares.TenantTx; otherwise pins a
// fresh session to the tenant's search_path.
func GetTenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}

	schema, _ := c.Locals("schema").(string)
	if strings.TrimSpace(schema) == "" {
		return nil, errors.New("tenant schema missing")
	}
	if DB == nil {
		return nil, errors.New("database not initialized")
	}

	sess := DB.Session(&gorm.Session{NewDB: true})
	if err := sess.Exec(`SET search_path = "` + schema + `", public`).Error; err != nil {
		return nil, fmt.Errorf("set search_path failed: %w", err)
	}
	return sess, nil
}
