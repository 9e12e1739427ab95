package config

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort int

	JWTSecret string

	// CatalogPath путь к JSON-каталогу; пусто — встроенный набор
	CatalogPath string
	// StatePath файл для корзин и избранного; пусто — только память
	StatePath string

	// политика оформления заказа
	FreeShippingOver decimal.Decimal
	FlatShipping     decimal.Decimal
	TaxRate          decimal.Decimal
}

func Load() Config {
	return Config{
		AppEnv:      getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),
		JWTSecret:   getEnv("JWT_SECRET", "boutique-dev-secret"),
		CatalogPath: getEnv("CATALOG_PATH", ""),
		StatePath:   getEnv("STATE_PATH", ""),

		FreeShippingOver: getEnvDecimal("FREE_SHIPPING_OVER", "100"),
		FlatShipping:     getEnvDecimal("FLAT_SHIPPING", "10"),
		TaxRate:          getEnvDecimal("TAX_RATE", "0.1"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)

	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}

func getEnvDecimal(key, def string) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return decimal.RequireFromString(def)
}
