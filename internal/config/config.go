package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is loaded once at startup and passed explicitly to constructors.
type Config struct {
	Port     string `yaml:"port"`
	DBDriver string `yaml:"db_driver"` // sqlite | postgres
	DBDSN    string `yaml:"db_dsn"`
	LogFile  string `yaml:"log_file"`

	SecretKey     string        `yaml:"secret_key"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	CookieSecure  bool          `yaml:"cookie_secure"`

	Storage        string `yaml:"storage"` // local | s3
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	MaxUploadFiles int    `yaml:"max_upload_files"`
	S3             S3     `yaml:"s3"`

	SeedSample      bool   `yaml:"seed_sample"`
	JanitorSchedule string `yaml:"janitor_schedule"`
}

type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func Default() Config {
	return Config{
		Port:            "8080",
		DBDriver:        "sqlite",
		DBDSN:           "estatedesk.db",
		LogFile:         "./estatedesk.log",
		AdminEmail:      "admin@example.com",
		AdminPassword:   "changeme123",
		SessionTTL:      12 * time.Hour,
		BcryptCost:      12,
		Storage:         "local",
		UploadDir:       "./web/uploads",
		MaxUploadBytes:  5 << 20,
		MaxUploadFiles:  12,
		SeedSample:      true,
		JanitorSchedule: "@every 1h",
		S3:              S3{Region: "auto"},
	}
}

// Load layers defaults, the optional CONFIG_FILE (YAML), an optional .env file
// and the process environment, in that order.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			log.Printf("[warn] %v", err)
		}
	}
	cfg.mergeEnv(os.Getenv)

	if cfg.SecretKey == "" {
		cfg.SecretKey = randomKey()
		log.Printf("[warn] SECRET_KEY not set; using a random key, sessions end on restart")
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s STORAGE=%s UPLOAD_DIR=%s LOG_FILE=%s",
		cfg.Port, cfg.DBDriver, cfg.Storage, cfg.UploadDir, cfg.LogFile)
	return cfg
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) mergeEnv(getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DB_DRIVER", &c.DBDriver)
	str("DB_DSN", &c.DBDSN)
	str("LOG_FILE", &c.LogFile)
	str("SECRET_KEY", &c.SecretKey)
	str("ADMIN_EMAIL", &c.AdminEmail)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("STORAGE", &c.Storage)
	str("UPLOAD_DIR", &c.UploadDir)
	str("S3_BUCKET", &c.S3.Bucket)
	str("S3_REGION", &c.S3.Region)
	str("S3_ENDPOINT", &c.S3.Endpoint)
	str("S3_ACCESS_KEY_ID", &c.S3.AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &c.S3.SecretAccessKey)
	str("JANITOR_SCHEDULE", &c.JanitorSchedule)

	if v := getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.SessionTTL = d
		} else {
			log.Printf("[warn] ignoring SESSION_TTL=%q", v)
		}
	}
	if v := getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxUploadBytes = n
		}
	}
	if v := getenv("MAX_UPLOAD_FILES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxUploadFiles = n
		}
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BcryptCost = n
		}
	}
	if v := getenv("SEED_SAMPLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SeedSample = b
		}
	}
	if v := getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CookieSecure = b
		}
	}
}

// BodyLimit is large enough for a full upload batch plus form fields.
func (c Config) BodyLimit() int {
	return int(c.MaxUploadBytes)*c.MaxUploadFiles + 1<<20
}

func randomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
