package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pharmadesk/pharmadesk/internal/parse"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Ingest IngestConfig
}

// IngestConfig tunes the ingestion pipeline. The parser offsets are
// reverse-engineered from sample receipts, so they are deployment
// configuration rather than code constants.
type IngestConfig struct {
	// SyncMaxBytes is the receipt size below which submissions are processed
	// inline and answered with the full ledger.
	SyncMaxBytes int

	ItemLookahead        int
	DiscountOrdinal      int
	SentinelPhone        string
	UnknownCustomerName  string
	CashlistCustomerName string
	KnownStores          []string
	FallbackStore        string
	FooterMarkers        []string
}

// ParseOptions renders the ingest tuning as parser options.
func (c IngestConfig) ParseOptions() parse.Options {
	return parse.Options{
		ItemLookahead:        c.ItemLookahead,
		DiscountOrdinal:      c.DiscountOrdinal,
		SentinelPhone:        c.SentinelPhone,
		UnknownCustomerName:  c.UnknownCustomerName,
		CashlistCustomerName: c.CashlistCustomerName,
		KnownStores:          c.KnownStores,
		FallbackStore:        c.FallbackStore,
		FooterMarkers:        c.FooterMarkers,
	}
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "pharmadesk"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "pharmadesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		Ingest: IngestConfig{
			SyncMaxBytes:         getenvInt("INGEST_SYNC_MAX_BYTES", 4096),
			ItemLookahead:        getenvInt("INGEST_ITEM_LOOKAHEAD", 10),
			DiscountOrdinal:      getenvInt("INGEST_DISCOUNT_ORDINAL", 6),
			SentinelPhone:        getenv("INGEST_SENTINEL_PHONE", parse.DefaultSentinelPhone),
			UnknownCustomerName:  getenv("INGEST_UNKNOWN_CUSTOMER", "Unknown Customer"),
			CashlistCustomerName: getenv("INGEST_CASHLIST_CUSTOMER", "Cashlist Customer"),
			KnownStores:          getenvList("INGEST_KNOWN_STORES", nil),
			FallbackStore:        getenv("INGEST_FALLBACK_STORE", "Main Store"),
			FooterMarkers:        getenvList("INGEST_FOOTER_MARKERS", []string{"Marg", "ERP", "Software"}),
		},
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return def
	}
	return out
}
