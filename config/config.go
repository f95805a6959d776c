package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds every runtime knob. Values come from an optional YAML
// file first, then environment variables override field by field.
type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	MongoURI  string `yaml:"mongo_uri"`
	MongoName string `yaml:"mongo_name"`

	JWTSecretKey string `yaml:"jwt_secret_key"`

	IPFSAddr    string `yaml:"ipfs_addr"`
	IPFSGateway string `yaml:"ipfs_gateway"`

	UploadDir string `yaml:"upload_dir"`
	OutputDir string `yaml:"output_dir"`
	StatusDir string `yaml:"status_dir"`

	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	TranscodeTimeout time.Duration `yaml:"transcode_timeout"`
	MaxListLimit     int64         `yaml:"max_list_limit"`
}

// GetEnv returns the env var or def when unset or empty.
func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Default() Config {
	return Config{
		Host:             "localhost",
		Port:             "8080",
		MongoURI:         "mongodb://localhost:27017",
		MongoName:        "vidmill",
		IPFSAddr:         "localhost:5001",
		IPFSGateway:      "https://ipfs.io/ipfs",
		UploadDir:        "uploads",
		OutputDir:        "output_videos",
		StatusDir:        ".vidmill/status",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		TranscodeTimeout: 10 * time.Minute,
		MaxListLimit:     100,
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Host = GetEnv("HOST", cfg.Host)
	cfg.Port = GetEnv("PORT", cfg.Port)
	cfg.MongoURI = GetEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoName = GetEnv("MONGO_NAME", cfg.MongoName)
	cfg.JWTSecretKey = GetEnv("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.IPFSAddr = GetEnv("IPFS_ADDR", cfg.IPFSAddr)
	cfg.IPFSGateway = GetEnv("IPFS_GATEWAY", cfg.IPFSGateway)
	cfg.UploadDir = GetEnv("UPLOAD_DIR", cfg.UploadDir)
	cfg.OutputDir = GetEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.StatusDir = GetEnv("STATUS_DIR", cfg.StatusDir)
	cfg.FFmpegPath = GetEnv("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.FFprobePath = GetEnv("FFPROBE_PATH", cfg.FFprobePath)

	if v := os.Getenv("TRANSCODE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("parse TRANSCODE_TIMEOUT: %w", err)
		}
		cfg.TranscodeTimeout = d
	}
	if v := os.Getenv("MAX_LIST_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("parse MAX_LIST_LIMIT: %w", err)
		}
		cfg.MaxListLimit = n
	}

	return cfg, nil
}

// ListenAddr joins host and port for http.Server.
func (c Config) ListenAddr() string {
	return c.Host + ":" + c.Port
}

// EnsureDirs creates the local working directories on startup.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.UploadDir, c.OutputDir, c.StatusDir} {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	return nil
}
