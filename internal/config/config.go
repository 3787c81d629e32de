package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	NMEA   NMEAConfig   `yaml:"nmea"`
	Track  TrackConfig  `yaml:"track"`
	Depth  DepthConfig  `yaml:"depth"`
	Tide   TideConfig   `yaml:"tide"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Logger LoggerConfig `yaml:"logger"`
	Web    WebConfig    `yaml:"web"`
}

type NMEAConfig struct {
	VerifyChecksum bool `yaml:"verify_checksum"`
}

// TrackConfig drives batch track generation (nmea2gpx).
type TrackConfig struct {
	SourceDir  string  `yaml:"source_dir"`
	TargetDir  string  `yaml:"target_dir"`
	ArchiveDir string  `yaml:"archive_dir"`
	IntervalM  float64 `yaml:"interval_m"`
	JumpM      float64 `yaml:"jump_m"`
	From       string  `yaml:"from"` // DDMMYYhhmmss, empty = open
	To         string  `yaml:"to"`
}

// DepthConfig drives the depth waypoint layer (depth_processor).
type DepthConfig struct {
	Input     string          `yaml:"input"`
	Output    string          `yaml:"output"`
	IntervalM float64         `yaml:"interval_m"`
	JumpM     float64         `yaml:"jump_m"`
	StartTime string          `yaml:"start_time"` // hhmmss on the first log date
	EndTime   string          `yaml:"end_time"`   // hhmmss on the last log date
	DateStamp bool            `yaml:"date_stamp"` // append -YYYY-MM-DD to the output name
	Tide      DepthTideConfig `yaml:"tide"`
}

// Tide correction sources.
const (
	TideStations = "stations"
	TideManual   = "manual"
	TideNone     = "none"
)

type DepthTideConfig struct {
	Source string  `yaml:"source"` // stations, manual or none
	StartM float64 `yaml:"start_m"`
	EndM   float64 `yaml:"end_m"`
}

// TideConfig locates the station manifest and observation files.
type TideConfig struct {
	StationsFile string        `yaml:"stations_file"`
	DataDir      string        `yaml:"data_dir"`
	UTCOffset    time.Duration `yaml:"utc_offset"` // fixed offset of observation files
	ZoneName     string        `yaml:"zone_name"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

type MQTTConfig struct {
	Broker          string `yaml:"broker"`
	ClientIDLogger  string `yaml:"client_id_logger"`
	ClientIDConsole string `yaml:"client_id_console"`
	ClientIDWeb     string `yaml:"client_id_web"`
	TopicNMEA       string `yaml:"topic_nmea"`
}

// LoggerConfig is the serial capture of the instrument bus.
type LoggerConfig struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`
	LogDir     string `yaml:"log_dir"`
	Publish    bool   `yaml:"publish"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal load the file at most once.
//   - configMu guards globalConfig for readers in other goroutines.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML configuration file, applies defaults and validates it.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Track.SourceDir == "" {
		c.Track.SourceDir = "nmea"
	}
	if c.Track.TargetDir == "" {
		c.Track.TargetDir = "gpx"
	}
	if c.Track.ArchiveDir == "" {
		c.Track.ArchiveDir = "nmea/old"
	}
	if c.Track.IntervalM == 0 {
		c.Track.IntervalM = 30
	}
	if c.Track.JumpM == 0 {
		c.Track.JumpM = 10000
	}

	if c.Depth.Input == "" {
		c.Depth.Input = "vdr.txt"
	}
	if c.Depth.Output == "" {
		c.Depth.Output = "dieptes.gpx"
	}
	if c.Depth.IntervalM == 0 {
		c.Depth.IntervalM = 10
	}
	if c.Depth.JumpM == 0 {
		c.Depth.JumpM = 10000
	}
	if c.Depth.Tide.Source == "" {
		c.Depth.Tide.Source = TideStations
	}

	if c.Tide.StationsFile == "" {
		c.Tide.StationsFile = "tidalstations.conf"
	}
	if c.Tide.DataDir == "" {
		c.Tide.DataDir = "data"
	}
	if c.Tide.UTCOffset == 0 && c.Tide.ZoneName == "" {
		c.Tide.UTCOffset = time.Hour
		c.Tide.ZoneName = "Etc/GMT-1"
	}
	if c.Tide.FetchTimeout <= 0 {
		c.Tide.FetchTimeout = 60 * time.Second
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
	if c.MQTT.ClientIDLogger == "" {
		c.MQTT.ClientIDLogger = "nmea-depth-logger"
	}
	if c.MQTT.ClientIDConsole == "" {
		c.MQTT.ClientIDConsole = "nmea-depth-console"
	}
	if c.MQTT.ClientIDWeb == "" {
		c.MQTT.ClientIDWeb = "nmea-depth-web"
	}
	if c.MQTT.TopicNMEA == "" {
		c.MQTT.TopicNMEA = "nmea/raw"
	}

	if c.Logger.SerialPort == "" {
		c.Logger.SerialPort = "/dev/ttyUSB0"
	}
	if c.Logger.BaudRate == 0 {
		c.Logger.BaudRate = 4800
	}
	if c.Logger.LogDir == "" {
		c.Logger.LogDir = c.Track.SourceDir
	}

	if c.Web.Addr == "" {
		c.Web.Addr = ":8080"
	}
}

// validate checks value ranges and cross-field constraints.
func (c *Config) validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.Track.IntervalM < 0 {
		return fmt.Errorf("track.interval_m must be >= 0, got %v", c.Track.IntervalM)
	}
	if c.Track.JumpM <= c.Track.IntervalM {
		return fmt.Errorf("track.jump_m (%v) must be larger than track.interval_m (%v)", c.Track.JumpM, c.Track.IntervalM)
	}
	if c.Depth.IntervalM < 0 {
		return fmt.Errorf("depth.interval_m must be >= 0, got %v", c.Depth.IntervalM)
	}
	if c.Depth.JumpM <= c.Depth.IntervalM {
		return fmt.Errorf("depth.jump_m (%v) must be larger than depth.interval_m (%v)", c.Depth.JumpM, c.Depth.IntervalM)
	}
	if err := validClock("depth.start_time", c.Depth.StartTime); err != nil {
		return err
	}
	if err := validClock("depth.end_time", c.Depth.EndTime); err != nil {
		return err
	}

	switch c.Depth.Tide.Source {
	case TideStations, TideManual, TideNone:
	default:
		return fmt.Errorf("depth.tide.source must be %s, %s or %s, got %q",
			TideStations, TideManual, TideNone, c.Depth.Tide.Source)
	}

	if c.Tide.UTCOffset < -14*time.Hour || c.Tide.UTCOffset > 14*time.Hour {
		return fmt.Errorf("tide.utc_offset out of range: %s", c.Tide.UTCOffset)
	}
	if c.Logger.BaudRate <= 0 {
		return errors.New("logger.baud_rate must be > 0")
	}
	return nil
}

func validClock(name, v string) error {
	if v == "" {
		return nil
	}
	if len(v) != 6 {
		return fmt.Errorf("%s must be hhmmss, got %q", name, v)
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fmt.Errorf("%s must be hhmmss, got %q", name, v)
		}
	}
	return nil
}

// Zone returns the fixed time zone of the station observation files.
func (c *Config) Zone() *time.Location {
	name := c.Tide.ZoneName
	if name == "" {
		name = fmt.Sprintf("UTC%+g", c.Tide.UTCOffset.Hours())
	}
	return time.FixedZone(name, int(c.Tide.UTCOffset/time.Second))
}

// InitGlobal loads the global configuration from file. Only the first
// call has an effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
