package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration shared by the rig and the browse server.
// Values come from the YAML file first; a small set of env vars override it
// so deployments can tweak endpoints without editing the file.
type Config struct {
	Rig    RigConfig    `yaml:"rig"`
	Server ServerConfig `yaml:"server"`
	NATS   NATSConfig   `yaml:"nats"`
	Redis  RedisConfig  `yaml:"redis"`
	Chat   ChatConfig   `yaml:"chat"`
	Auth   AuthConfig   `yaml:"auth"`
}

type RigConfig struct {
	ID            string        `yaml:"id"`
	Source        string        `yaml:"source"` // device index ("0") or a video file path
	Models        []ModelConfig `yaml:"models"`
	InferSize     int           `yaml:"infer_size"`
	ConfThreshold float64       `yaml:"conf_threshold"`
	NMSThreshold  float64       `yaml:"nms_threshold"`
	MinBoxPx      int           `yaml:"min_box_px"`

	FocalLengthPx  float64            `yaml:"focal_length_px"`
	RealWidthsM    map[string]float64 `yaml:"real_widths_m"`
	MetersPerPixel float64            `yaml:"meters_per_pixel"`

	RadarSizePx    int     `yaml:"radar_size_px"`
	RadarRangeM    float64 `yaml:"radar_range_m"`
	RadarRingStepM float64 `yaml:"radar_ring_step_m"`
	MaxTrail       int     `yaml:"max_trail"`

	DisplayWidth  int `yaml:"display_width"`
	DisplayHeight int `yaml:"display_height"`

	RecordingPath string  `yaml:"recording_path"`
	RecordingFPS  float64 `yaml:"recording_fps"`
	LogPath       string  `yaml:"log_path"`
	SnapshotEvery int     `yaml:"snapshot_every"`

	HealthAddr string `yaml:"health_addr"`

	LEDs LEDConfig  `yaml:"leds"`
	OLED OLEDConfig `yaml:"oled"`
}

// ModelConfig names one ONNX detector and maps its class indices to
// insect labels.
type ModelConfig struct {
	Name   string         `yaml:"name"`
	Path   string         `yaml:"path"`
	Labels map[int]string `yaml:"labels"`
}

type LEDConfig struct {
	Enabled bool   `yaml:"enabled"`
	RedPin  string `yaml:"red_pin"`
	Yellow  string `yaml:"yellow_pin"`
	Green   string `yaml:"green_pin"`
}

type OLEDConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bus     string `yaml:"bus"` // empty = first available I2C bus
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	LogPath       string `yaml:"log_path"`
	RecordingsDir string `yaml:"recordings_dir"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Retries int    `yaml:"publish_retry_max"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type ChatConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	AnswerCache    int    `yaml:"answer_cache"`
}

// Timeout converts the configured seconds into a duration.
func (c ChatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type AuthConfig struct {
	SigningKey      string `yaml:"signing_key"`
	Operator        string `yaml:"operator"`
	PasswordHash    string `yaml:"password_hash"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// Defaults mirror the bench setup the rig was calibrated on.
func Default() Config {
	return Config{
		Rig: RigConfig{
			ID:             "rig-1",
			Source:         "0",
			Models: []ModelConfig{
				{Name: "cockroach", Path: "models/cockroach-n.onnx", Labels: map[int]string{0: "cockroach"}},
				{Name: "insect", Path: "models/insect-100.onnx", Labels: map[int]string{0: "fly"}},
			},
			InferSize:      640,
			ConfThreshold:  0.25,
			NMSThreshold:   0.45,
			MinBoxPx:       10,
			FocalLengthPx:  1200.0,
			RealWidthsM:    map[string]float64{"fly": 0.08, "cockroach": 0.08},
			MetersPerPixel: 0.02,
			RadarSizePx:    300,
			RadarRangeM:    1.0,
			RadarRingStepM: 0.2,
			MaxTrail:       30,
			DisplayWidth:   640,
			DisplayHeight:  480,
			RecordingPath:  "insect_detection_output.avi",
			RecordingFPS:   30,
			LogPath:        "insect_log.json",
			SnapshotEvery:  30,
			HealthAddr:     ":8090",
			LEDs:           LEDConfig{Enabled: true, RedPin: "GPIO17", Yellow: "GPIO27", Green: "GPIO22"},
			OLED:           OLEDConfig{Enabled: true, Width: 128, Height: 64},
		},
		Server: ServerConfig{
			Addr:          ":8080",
			LogPath:       "insect_log.json",
			RecordingsDir: ".",
		},
		NATS:  NATSConfig{URL: "nats://localhost:4222", Subject: "detections.insect", Retries: 3},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Chat:  ChatConfig{BaseURL: "http://localhost:11434", Model: "phi3:latest", TimeoutSeconds: 60, AnswerCache: 64},
		Auth:  AuthConfig{Operator: "operator", TokenTTLMinutes: 15},
	}
}

// Load reads the YAML file at path (missing file is fine, defaults apply)
// and then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Auth.SigningKey = getEnv("JWT_SIGNING_KEY", cfg.Auth.SigningKey)
	cfg.Chat.BaseURL = getEnv("OLLAMA_URL", cfg.Chat.BaseURL)
	cfg.Chat.Model = getEnv("OLLAMA_MODEL", cfg.Chat.Model)

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	if src := os.Getenv("RIG_SOURCE"); src != "" {
		cfg.Rig.Source = src
	}
	if n := getEnvInt("RIG_SNAPSHOT_EVERY", 0); n > 0 {
		cfg.Rig.SnapshotEvery = n
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
