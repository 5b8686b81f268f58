package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	OCR        OCRConfig
	Learning   LearningConfig
	Scan       ScanConfig
	Anomaly    AnomalyConfig
	LogLevel   string
	Thresholds string // optional YAML thresholds file, see thresholds.go
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Enabled   bool
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	Language string // tesseract language, default "fra"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit

	ReviewThreshold float32       // document OCR confidence below this flags NeedsReview
	PageTimeout     time.Duration // 0 = rely on the caller's context only
}

// LearningConfig holds learning-store configuration
type LearningConfig struct {
	Enabled        bool
	DBPath         string
	MinOccurrences int // auto-correction repetition threshold
}

// ScanConfig holds the scan-detection heuristics. The defaults are
// starting points, not validated ground truth; tune per corpus.
type ScanConfig struct {
	SamplePages     int     `yaml:"sample_pages"`
	MinChars        int     `yaml:"min_chars"`
	MinWords        int     `yaml:"min_words"`
	MaxForeignRatio float64 `yaml:"max_foreign_ratio"`
}

// AnomalyConfig holds the plausibility bounds used by the anomaly checker.
type AnomalyConfig struct {
	PriceMin float64 `yaml:"price_min"`
	PriceMax float64 `yaml:"price_max"`
}

// DefaultAnomalyConfig returns the stock plausibility bounds.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{PriceMin: 1000, PriceMax: 10_000_000}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Enabled:         getEnvAsBool("OCR_ENABLED", true),
			Pdftotext:       getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:        getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Language:        getEnv("OCR_LANG", "fra"),
			DPI:             getEnvAsInt("OCR_DPI", 300),
			MaxPages:        getEnvAsInt("OCR_MAX_PAGES", 0),
			ReviewThreshold: getEnvAsFloat32("OCR_REVIEW_THRESHOLD", 0.6),
			PageTimeout:     getEnvAsDuration("OCR_PAGE_TIMEOUT", 0),
		},
		Learning: LearningConfig{
			Enabled:        getEnvAsBool("LEARNING_ENABLED", true),
			DBPath:         getEnv("LEARNING_DB", "./titleparse.db"),
			MinOccurrences: getEnvAsInt("LEARNING_MIN_OCCURRENCES", 2),
		},
		Scan: ScanConfig{
			SamplePages:     getEnvAsInt("SCAN_SAMPLE_PAGES", 3),
			MinChars:        getEnvAsInt("SCAN_MIN_CHARS", 150),
			MinWords:        getEnvAsInt("SCAN_MIN_WORDS", 25),
			MaxForeignRatio: getEnvAsFloat64("SCAN_MAX_FOREIGN_RATIO", 0.3),
		},
		Anomaly: AnomalyConfig{
			PriceMin: getEnvAsFloat64("ANOMALY_PRICE_MIN", 1000),
			PriceMax: getEnvAsFloat64("ANOMALY_PRICE_MAX", 10_000_000),
		},
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Thresholds: getEnv("TITLEPARSE_THRESHOLDS", ""),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	if c.Learning.Enabled && c.Learning.DBPath == "" {
		return NewAppError("CONFIG_ERROR", "LEARNING_DB is required when learning is enabled", ErrInvalidInput)
	}
	if c.Learning.MinOccurrences < 1 {
		return NewAppError("CONFIG_ERROR", "LEARNING_MIN_OCCURRENCES must be >= 1", ErrInvalidInput)
	}
	if c.Scan.SamplePages < 1 {
		return NewAppError("CONFIG_ERROR", "SCAN_SAMPLE_PAGES must be >= 1", ErrInvalidInput)
	}
	return nil
}
