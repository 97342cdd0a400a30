package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/recordhub/backend/internal/store"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Storage StorageConfig
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// LogConfig 描述日志输出配置。
type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig 描述各集合的存储后端与路径。
type StorageConfig struct {
	DataDir      string
	SQLitePath   string
	ProductsFile string

	Students     store.Kind
	Cart         store.Kind
	Applications store.Kind
	Notes        store.Kind
	Contacts     store.Kind
}

// UsesSQLite 表示是否有集合需要打开 SQLite 数据库。
func (s StorageConfig) UsesSQLite() bool {
	for _, k := range []store.Kind{s.Students, s.Cart, s.Applications, s.Notes, s.Contacts} {
		if k == store.KindSQLite {
			return true
		}
	}
	return false
}

// PathFor 返回某个集合在文件或目录后端下的路径。
func (s StorageConfig) PathFor(collection string, kind store.Kind) string {
	if kind == store.KindDir {
		return filepath.Join(s.DataDir, collection)
	}
	return filepath.Join(s.DataDir, collection+".json")
}

// fileConfig 是 CONFIG_FILE 指向的 YAML 文件结构。
type fileConfig struct {
	Port string `yaml:"port"`
	Log  struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Storage struct {
		DataDir      string            `yaml:"data_dir"`
		SQLitePath   string            `yaml:"sqlite_path"`
		ProductsFile string            `yaml:"products_file"`
		Backends     map[string]string `yaml:"backends"`
	} `yaml:"storage"`
}

// Load 依次应用默认值、CONFIG_FILE 中的 YAML 和环境变量。
func Load() (*Config, error) {
	file, err := loadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig(file)
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig(file)
	if err != nil {
		return nil, err
	}

	storage, err := loadStorageConfig(file)
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: logCfg, Storage: storage}, nil
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fc, fmt.Errorf("config file %s does not exist", path)
		}
		return fc, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc, nil
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig(file fileConfig) (ServerConfig, error) {
	port := getEnvOrDefault("PORT", strings.TrimSpace(file.Port))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadLogConfig(file fileConfig) (LogConfig, error) {
	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", orDefault(file.Log.Level, "info")))
	switch level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value: %q", level)
	}

	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", orDefault(file.Log.Format, "json")))
	if format != "json" && format != "console" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value: %q (want json or console)", format)
	}

	return LogConfig{Level: level, Format: format}, nil
}

func loadStorageConfig(file fileConfig) (StorageConfig, error) {
	dataDir := getEnvOrDefault("DATA_DIR", orDefault(file.Storage.DataDir, "data"))

	cfg := StorageConfig{
		DataDir:      dataDir,
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", orDefault(file.Storage.SQLitePath, filepath.Join(dataDir, "recordhub.db"))),
		ProductsFile: getEnvOrDefault("PRODUCTS_FILE", orDefault(file.Storage.ProductsFile, filepath.Join(dataDir, "products.json"))),
	}

	backends := []struct {
		name     string
		fallback store.Kind
		dst      *store.Kind
	}{
		{"students", store.KindFile, &cfg.Students},
		{"cart", store.KindFile, &cfg.Cart},
		{"applications", store.KindFile, &cfg.Applications},
		{"notes", store.KindDir, &cfg.Notes},
		{"contacts", store.KindMemory, &cfg.Contacts},
	}
	for _, b := range backends {
		key := strings.ToUpper(b.name) + "_BACKEND"
		raw := getEnvOrDefault(key, orDefault(file.Storage.Backends[b.name], string(b.fallback)))
		kind, err := store.ParseKind(raw)
		if err != nil {
			return StorageConfig{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		*b.dst = kind
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return defaultValue
}
