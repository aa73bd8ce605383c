// Package config loads application configuration from config/app.json and
// .env, falling back to built-in defaults. Values are merged once on first
// access and are safe for concurrent reads.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

const (
	defaultMongoURI    = "mongodb://localhost:27017"
	defaultMongoDB     = "cremaze"
	defaultRedisAddr   = "localhost:6379"
	defaultJWTSecret   = "change-me-in-production"
	defaultAppPort     = "5000"
	defaultAppEnv      = "local"
	defaultCORSOrigin  = "http://localhost:5173"
	defaultCurrency    = "INR"
	defaultUploadsDir  = "uploads"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"MONGO_URI":          defaultMongoURI,
		"MONGO_DB":           defaultMongoDB,
		"REDIS_ADDR":         defaultRedisAddr,
		"REDIS_PASSWORD":     "",
		"JWT_SECRET":         defaultJWTSecret,
		"APP_PORT":           defaultAppPort,
		"APP_ENV":            defaultAppEnv,
		"CORS_ORIGIN":        defaultCORSOrigin,
		"PAYMENT_KEY_ID":     "",
		"PAYMENT_KEY_SECRET": "",
		"PAYMENT_CURRENCY":   defaultCurrency,
		"GRPC_PORT":          "",
		"STORAGE_DISK":       "local",
		"STORAGE_LOCAL_ROOT": defaultUploadsDir,
		"STORAGE_URL":        "http://localhost:5000/uploads",
	}
}

// ── Core ─────────────────────────────────────────────────────────────────────

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

func MongoDB() string {
	_ = Load()
	return get("MONGO_DB", defaultMongoDB)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// CORSOrigin is the single allowed browser origin for the SPA.
func CORSOrigin() string {
	_ = Load()
	return get("CORS_ORIGIN", defaultCORSOrigin)
}

func GRPCPort() string {
	_ = Load()
	return get("GRPC_PORT", "")
}

// ── Payment gateway ──────────────────────────────────────────────────────────

func PaymentKeyID() string     { _ = Load(); return get("PAYMENT_KEY_ID", "") }
func PaymentKeySecret() string { _ = Load(); return get("PAYMENT_KEY_SECRET", "") }
func PaymentCurrency() string  { _ = Load(); return get("PAYMENT_CURRENCY", defaultCurrency) }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string   { _ = Load(); return get("STORAGE_DISK", "local") }
func StorageLocalRoot() string { _ = Load(); return get("STORAGE_LOCAL_ROOT", defaultUploadsDir) }
func StorageURL() string {
	_ = Load()
	return get("STORAGE_URL", "http://localhost:"+AppPort()+"/uploads")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
