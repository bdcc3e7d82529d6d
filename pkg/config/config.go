package config

import (
	"io/fs"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"typing-server/internal/types"
)

// Defaults
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8000
	DefaultTextFile        = "sample_text.txt"
	DefaultResultsDB       = "results.db"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config holds the server configuration. Zero values in a YAML file keep the defaults.
type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	TextFile        string        `yaml:"text_file"`
	AssetsDir       string        `yaml:"assets_dir"` // empty serves the embedded assets
	ResultsDB       string        `yaml:"results_db"` // empty disables result storage
	Debug           bool          `yaml:"debug"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Global variables for the application
var (
	// WebSocket management
	wsClients      = make(map[*types.WSClient]bool)
	wsClientsMutex sync.RWMutex
	upgrader       = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
)

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		TextFile:        DefaultTextFile,
		ResultsDB:       DefaultResultsDB,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load builds the configuration from defaults, an optional YAML file and the environment.
// Call LoadDotEnv first if a .env file should feed the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}

		var y Config
		if err := yaml.Unmarshal(b, &y); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
		cfg.merge(&y)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file without overriding the environment.
// A missing file is not an error.
func LoadDotEnv(filename string) error {
	if filename == "" {
		return nil
	}
	if err := godotenv.Load(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "loading %s", filename)
	}
	return nil
}

// merge copies the non-zero fields of other into c
func (c *Config) merge(other *Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.TextFile != "" {
		c.TextFile = other.TextFile
	}
	if other.AssetsDir != "" {
		c.AssetsDir = other.AssetsDir
	}
	if other.ResultsDB != "" {
		c.ResultsDB = other.ResultsDB
	}
	if other.Debug {
		c.Debug = true
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TYPING_HOST"); v != "" {
		c.Host = v
	}

	// PORT is honoured for platforms that inject it; TYPING_PORT wins
	for _, key := range []string{"PORT", "TYPING_PORT"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		port, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("invalid %s %q", key, v)
		}
		c.Port = port
	}

	if v := os.Getenv("TYPING_TEXT_FILE"); v != "" {
		c.TextFile = v
	}
	if v := os.Getenv("TYPING_ASSETS_DIR"); v != "" {
		c.AssetsDir = v
	}
	if v, ok := os.LookupEnv("TYPING_RESULTS_DB"); ok {
		c.ResultsDB = v
	}
	return nil
}

// Validate checks that the configuration can be served
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if c.TextFile == "" {
		return errors.New("text file path is empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// WSClientCount returns the number of connected WebSocket clients
func WSClientCount() int {
	wsClientsMutex.RLock()
	defer wsClientsMutex.RUnlock()
	return len(wsClients)
}

// GetWSClients returns a copy of the WebSocket clients map
func GetWSClients() map[*types.WSClient]bool {
	wsClientsMutex.RLock()
	defer wsClientsMutex.RUnlock()

	clients := make(map[*types.WSClient]bool)
	for k, v := range wsClients {
		clients[k] = v
	}
	return clients
}

// AddWSClient adds a WebSocket client to the global map (thread-safe)
func AddWSClient(client *types.WSClient) {
	wsClientsMutex.Lock()
	wsClients[client] = true
	wsClientsMutex.Unlock()
}

// RemoveWSClient removes a WebSocket client from the global map (thread-safe)
func RemoveWSClient(client *types.WSClient) {
	wsClientsMutex.Lock()
	delete(wsClients, client)
	wsClientsMutex.Unlock()
}

// GetUpgrader returns the WebSocket upgrader
func GetUpgrader() websocket.Upgrader {
	return upgrader
}
