package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

type Config struct {
	ServerPort        string
	TesseractDataPath string
	OCRLanguage       string
	GeocodeAPIKey     string
	DefaultVATRate    string
	CorrespondentFile string
	MaxFileSize       int64
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		TesseractDataPath: getEnv("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata/"),
		OCRLanguage:       getEnv("OCR_LANGUAGE", "tur+eng"),
		GeocodeAPIKey:     os.Getenv("GEOCODE_API_KEY"),
		DefaultVATRate:    getEnv("DEFAULT_VAT_RATE", "18"),
		CorrespondentFile: os.Getenv("CORRESPONDENT_FILE"),
		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),
	}
}

// Correspondents loads the known-correspondent table from the
// configured JSON file, falling back to the built-in defaults when no
// file is set or it cannot be read.
func (c *Config) Correspondents(defaults []dto.Correspondent) []dto.Correspondent {
	if c.CorrespondentFile == "" {
		return defaults
	}

	data, err := os.ReadFile(c.CorrespondentFile)
	if err != nil {
		log.Printf("Failed to read correspondent file %s: %v", c.CorrespondentFile, err)
		return defaults
	}

	var table []dto.Correspondent
	if err := json.Unmarshal(data, &table); err != nil {
		log.Printf("Failed to parse correspondent file %s: %v", c.CorrespondentFile, err)
		return defaults
	}
	return table
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
