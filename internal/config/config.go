package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/iliyamo/store-catalog/internal/model"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The super-admin uid and the two creation
// policy knobs are read here once and injected into the policy engine at
// construction; they are never consulted as process globals afterwards.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign and verify access tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	MainAdminUID         string // uid always treated as admin; empty disables the override
	ProductCreateRole    string // role required to create products; empty allows any authenticated identity
	ProductDefaultStatus string // status of newly created products: pending or available
	StaticFolder         string // directory served at the web root
	CORSOrigins          string // comma-separated allowed origins, "*" for all
}

// Load reads configuration from environment variables. Required values
// are enforced by must() and missing ones exit with a fatal log message;
// policy knobs fall back to the stricter defaults.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		MainAdminUID:         os.Getenv("MAIN_ADMIN_UID"),
		ProductCreateRole:    envOr("PRODUCT_CREATE_ROLE", "publisher"),
		ProductDefaultStatus: envOr("PRODUCT_DEFAULT_STATUS", model.StatusPending),
		StaticFolder:         envOr("STATIC_FOLDER", "src"),
		CORSOrigins:          envOr("CORS_ORIGINS", "*"),
	}
	if cfg.ProductDefaultStatus != model.StatusPending && cfg.ProductDefaultStatus != model.StatusAvailable {
		log.Fatalf("invalid PRODUCT_DEFAULT_STATUS: %q (want pending or available)", cfg.ProductDefaultStatus)
	}
	// "any" is accepted as an explicit spelling of the open creation policy.
	if cfg.ProductCreateRole == "any" {
		cfg.ProductCreateRole = ""
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envOr returns the variable's value or a default when unset/empty.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
