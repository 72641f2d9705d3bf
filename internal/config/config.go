package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ponchomart/storefront/internal/models"
)

type Config struct {
	HTTP_ADDR string

	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	KAFKA_ADDRESS string

	JWT_SECRET string

	AUTH_TOKEN_URL string
	AUTH_BASIC     string

	CART_API_BASE     string
	PRODUCT_API_BASE  string
	RESOURCE_API_BASE string

	JP_API_HOST          string
	JP_API_CLIENT_ID     string
	JP_API_CLIENT_SECRET string
	JP_API_SEARCH_PATH   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:            getenvDefault("HTTP_ADDR", ":8080"),
		DB_HOST:              os.Getenv("DB_HOST"),
		DB_PORT:              os.Getenv("DB_PORT"),
		DB_USER:              os.Getenv("DB_USER"),
		DB_PASSWORD:          os.Getenv("DB_PASSWORD"),
		DB_NAME:              os.Getenv("DB_NAME"),
		ES_URL:               os.Getenv("ES_URL"),
		ES_USER:              os.Getenv("ES_USER"),
		ES_PASSWORD:          os.Getenv("ES_PASSWORD"),
		KAFKA_ADDRESS:        os.Getenv("KAFKA_ADDRESS"),
		JWT_SECRET:           os.Getenv("JWT_SECRET"),
		AUTH_TOKEN_URL:       os.Getenv("AUTH_TOKEN_URL"),
		AUTH_BASIC:           os.Getenv("AUTH_BASIC"),
		CART_API_BASE:        os.Getenv("CART_API_BASE"),
		PRODUCT_API_BASE:     os.Getenv("PRODUCT_API_BASE"),
		RESOURCE_API_BASE:    os.Getenv("RESOURCE_API_BASE"),
		JP_API_HOST:          os.Getenv("JP_API_HOST"),
		JP_API_CLIENT_ID:     os.Getenv("JP_API_CLIENT_ID"),
		JP_API_CLIENT_SECRET: os.Getenv("JP_API_CLIENT_SECRET"),
		JP_API_SEARCH_PATH:   os.Getenv("JP_API_SEARCH_PATH"),
	}

	// The upstream exposes cart, product and resource hosts separately in
	// some environments and a single host in others.
	if config.CART_API_BASE == "" {
		config.CART_API_BASE = config.PRODUCT_API_BASE
	}
	if config.RESOURCE_API_BASE == "" {
		config.RESOURCE_API_BASE = config.PRODUCT_API_BASE
	}

	return config, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func InitDB() (*gorm.DB, error) {
	configuration, _ := LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DB_USER,
		configuration.DB_PASSWORD,
		configuration.DB_HOST,
		configuration.DB_PORT,
		configuration.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("database connect failed: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("database migrate failed: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.PaymentMethod{},
		&models.FallbackCartItem{},
		&models.FallbackAddress{},
	)
}
