package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var errInvalidConfig = errors.New("invalid config")

// Config describes the demo graph the command runs.
type Config struct {
	Interval time.Duration `yaml:"interval"`
	// Repeat bounds the number of counter ticks. Zero runs until interrupted.
	Repeat int        `yaml:"repeat"`
	Window WindowConf `yaml:"window"`
	Kafka  KafkaConf  `yaml:"kafka"`
}

type WindowConf struct {
	Size     int  `yaml:"size"`
	FullOnly bool `yaml:"full_only"`
}

type KafkaConf struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// Codec is json (default), text, string, int64 or float64.
	Codec string `yaml:"codec"`
}

func defaultConfig() Config {
	return Config{
		Interval: time.Second,
		Repeat:   10,
		Window:   WindowConf{Size: 3, FullOnly: true},
	}
}

// loadConfig reads the optional .env file and YAML file at path. An empty
// path keeps the defaults. TRIBUTARY_KAFKA_BROKERS and TRIBUTARY_KAFKA_TOPIC
// override the file.
func loadConfig(path, envFile string) (Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := defaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("TRIBUTARY_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TRIBUTARY_KAFKA_TOPIC"); v != "" {
		cfg.Kafka.Topic = v
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case c.Interval < 0:
		return fmt.Errorf("%w: negative interval %s", errInvalidConfig, c.Interval)
	case c.Window.Size < -1:
		return fmt.Errorf("%w: window size %d", errInvalidConfig, c.Window.Size)
	case c.Kafka.Topic != "" && len(c.Kafka.Brokers) == 0:
		return fmt.Errorf("%w: kafka topic %q without brokers", errInvalidConfig, c.Kafka.Topic)
	}
	if _, err := codecFor(c.Kafka.Codec); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return nil
}
