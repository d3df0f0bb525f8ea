package common

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileEnv names the environment variable pointing at an optional TOML file.
const ConfigFileEnv = "NIENSO_CONFIG"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Inbox    InboxConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCAddr       string
	RequestTimeout time.Duration
	// OCRRatePerMin limits OCR uploads across all clients; 0 disables the limit.
	OCRRatePerMin int
	OCRBurst      int
	DefaultLocale string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractBin     string
	TessdataDir      string
	Languages        string
	PSM              int
	HeicConverter    string
	ArtifactCacheDir string
	MaxUploadBytes   int64
	Timeout          time.Duration
}

// InboxConfig configures the watched import folder. An empty Dir disables it.
type InboxConfig struct {
	Dir         string
	Workers     int
	QueueSize   int
	Debounce    time.Duration
	InitialScan bool
}

type LogConfig struct {
	Level string
}

// LoadConfig builds the configuration from defaults, then the TOML file named
// by NIENSO_CONFIG (if any), then environment variables.
func LoadConfig() (*Config, error) {
	src := &source{}
	if path := os.Getenv(ConfigFileEnv); path != "" {
		file, err := readConfigFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "cannot read config file "+path, err)
		}
		src.file = file
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:           src.getString("DB_DRIVER", "database.driver", "sqlite"),
			DSN:              src.getString("DB_URL", "database.dsn", "nienso.db"),
			MaxConns:         src.getInt32("DB_MAX_CONNS", "database.max_conns", 10),
			MinConns:         src.getInt32("DB_MIN_CONNS", "database.min_conns", 1),
			MaxConnLifetime:  src.getDuration("DB_MAX_CONN_LIFETIME", "database.max_conn_lifetime", 30*time.Minute),
			MaxConnIdleTime:  src.getDuration("DB_MAX_CONN_IDLE_TIME", "database.max_conn_idle_time", 5*time.Minute),
			DialTimeout:      src.getDuration("DB_DIAL_TIMEOUT", "database.dial_timeout", 3*time.Second),
			StatementTimeout: src.getDuration("DB_STATEMENT_TIMEOUT", "database.statement_timeout", 0),
		},
		Server: ServerConfig{
			HTTPAddr:       src.getString("HTTP_ADDR", "server.http_addr", ":8080"),
			GRPCAddr:       src.getString("GRPC_ADDR", "server.grpc_addr", ":9090"),
			RequestTimeout: src.getDuration("REQUEST_TIMEOUT", "server.request_timeout", 60*time.Second),
			OCRRatePerMin:  src.getInt("OCR_RATE_PER_MIN", "server.ocr_rate_per_min", 30),
			OCRBurst:       src.getInt("OCR_BURST", "server.ocr_burst", 5),
			DefaultLocale:  src.getString("DEFAULT_LOCALE", "server.default_locale", "vi"),
		},
		OCR: OCRConfig{
			TesseractBin:     src.getString("TESSERACT_BIN", "ocr.tesseract_bin", "tesseract"),
			TessdataDir:      src.getString("TESSDATA_PREFIX", "ocr.tessdata_dir", ""),
			Languages:        src.getString("OCR_LANGUAGES", "ocr.languages", "vie+eng"),
			PSM:              src.getInt("OCR_PSM", "ocr.psm", 6),
			HeicConverter:    src.getString("HEIC_CONVERTER", "ocr.heic_converter", "magick"),
			ArtifactCacheDir: src.getString("ARTIFACT_CACHE_DIR", "ocr.artifact_cache_dir", "./tmp"),
			MaxUploadBytes:   int64(src.getInt("OCR_MAX_UPLOAD_BYTES", "ocr.max_upload_bytes", 10<<20)),
			Timeout:          src.getDuration("OCR_TIMEOUT", "ocr.timeout", 2*time.Minute),
		},
		Inbox: InboxConfig{
			Dir:         src.getString("INBOX_DIR", "inbox.dir", ""),
			Workers:     src.getInt("INBOX_WORKERS", "inbox.workers", 2),
			QueueSize:   src.getInt("INBOX_QUEUE_SIZE", "inbox.queue_size", 64),
			Debounce:    src.getDuration("INBOX_DEBOUNCE", "inbox.debounce", 750*time.Millisecond),
			InitialScan: src.getBool("INBOX_INITIAL_SCAN", "inbox.initial_scan", true),
		},
		Log: LogConfig{
			Level: src.getString("LOG_LEVEL", "log.level", "info"),
		},
	}, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError(CodeConfig, "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.MaxUploadBytes <= 0 {
		return NewAppError(CodeConfig, "OCR_MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	if c.Inbox.Dir != "" && c.Inbox.Workers <= 0 {
		return NewAppError(CodeConfig, "INBOX_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}

// SlogLevel parses Log.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// source resolves a setting from the environment first, then the config file.
type source struct {
	file map[string]string
}

func (s *source) lookup(envKey, fileKey string) (string, bool) {
	if v := os.Getenv(envKey); v != "" {
		return v, true
	}
	if v, ok := s.file[fileKey]; ok && v != "" {
		return v, true
	}
	return "", false
}

func (s *source) getString(envKey, fileKey, defaultValue string) string {
	if v, ok := s.lookup(envKey, fileKey); ok {
		return v
	}
	return defaultValue
}

func (s *source) getInt(envKey, fileKey string, defaultValue int) int {
	if v, ok := s.lookup(envKey, fileKey); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func (s *source) getInt32(envKey, fileKey string, defaultValue int32) int32 {
	if v, ok := s.lookup(envKey, fileKey); ok {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			return int32(n)
		}
	}
	return defaultValue
}

func (s *source) getBool(envKey, fileKey string, defaultValue bool) bool {
	if v, ok := s.lookup(envKey, fileKey); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func (s *source) getDuration(envKey, fileKey string, defaultValue time.Duration) time.Duration {
	if v, ok := s.lookup(envKey, fileKey); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	flatten(raw, "", out)
	return out, nil
}

// flatten turns {"a": {"b": 1}} into {"a.b": "1"}.
func flatten(m map[string]any, prefix string, out map[string]string) {
	for key, value := range m {
		full := strings.ToLower(key)
		if prefix != "" {
			full = prefix + "." + full
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(nested, full, out)
			continue
		}
		out[full] = fmt.Sprint(value)
	}
}
