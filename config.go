package heappool

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/QuangTung97/heappool/heap"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "HEAPPOOL"
	appName      = "heappool"
)

// Config holds the tunables of a Manager. They are read once and never change afterwards.
type Config struct {
	// Name prefixes the diagnostic names given to heaps.
	Name string `yaml:"name" envconfig:"NAME"`

	MinimumAllocatorCount int `yaml:"minimumAllocatorCount" envconfig:"MINIMUM_ALLOCATOR_COUNT"`
	MaximumAllocatorCount int `yaml:"maximumAllocatorCount" envconfig:"MAXIMUM_ALLOCATOR_COUNT"`

	MinimumSharedAllocatorByteLength uint64 `yaml:"minimumSharedAllocatorByteLength" envconfig:"MINIMUM_SHARED_ALLOCATOR_BYTE_LENGTH"`
	MaximumSharedAllocatorByteLength uint64 `yaml:"maximumSharedAllocatorByteLength" envconfig:"MAXIMUM_SHARED_ALLOCATOR_BYTE_LENGTH"`

	MinimumFreeRegionByteLengthToRegister uint64 `yaml:"minimumFreeRegionByteLengthToRegister" envconfig:"MINIMUM_FREE_REGION_BYTE_LENGTH_TO_REGISTER"`
	MinimumMarginByteLength               uint64 `yaml:"minimumMarginByteLength" envconfig:"MINIMUM_MARGIN_BYTE_LENGTH"`
	DefaultByteAlignment                  uint64 `yaml:"defaultByteAlignment" envconfig:"DEFAULT_BYTE_ALIGNMENT"`

	// MinimumByteLength is the initial floor on committed bytes.
	MinimumByteLength uint64 `yaml:"minimumByteLength" envconfig:"MINIMUM_BYTE_LENGTH"`

	// ExternallySynchronized skips the manager mutex. Callers must serialize every call.
	ExternallySynchronized bool `yaml:"externallySynchronized" envconfig:"EXTERNALLY_SYNCHRONIZED"`

	PlacementFlags heap.PlacementFlags `yaml:"placementFlags" envconfig:"PLACEMENT_FLAGS"`

	Logger *slog.Logger `yaml:"-" ignored:"true"`
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		Name:                                  appName,
		MinimumAllocatorCount:                 0,
		MaximumAllocatorCount:                 1024,
		MinimumSharedAllocatorByteLength:      32 << 20,
		MaximumSharedAllocatorByteLength:      256 << 20,
		MinimumFreeRegionByteLengthToRegister: 4 << 10,
		MinimumMarginByteLength:               0,
		DefaultByteAlignment:                  64 << 10,
	}
}

// LoadConfig starts from DefaultConfig, applies the YAML file at path when it exists and
// then the HEAPPOOL_* environment variables. An empty path reads HEAPPOOL_CONFIG_FILE.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(envVarPrefix + "_CONFIG_FILE")
	}

	c := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return Config{}, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("parsing environment variables: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate ...
func (c *Config) Validate() error {
	if y, e := func() (string, string) {
		if c.MaximumAllocatorCount <= 0 {
			return "maximumAllocatorCount", "must be > 0"
		}
		if c.MinimumAllocatorCount < 0 || c.MinimumAllocatorCount > c.MaximumAllocatorCount {
			return "minimumAllocatorCount", "must be within [0, maximumAllocatorCount]"
		}
		if c.MaximumSharedAllocatorByteLength == 0 {
			return "maximumSharedAllocatorByteLength", "must be > 0"
		}
		if c.MinimumSharedAllocatorByteLength > c.MaximumSharedAllocatorByteLength {
			return "minimumSharedAllocatorByteLength", "must be <= maximumSharedAllocatorByteLength"
		}
		if c.MinimumMarginByteLength > c.MaximumSharedAllocatorByteLength/2 {
			return "minimumMarginByteLength", "must be <= maximumSharedAllocatorByteLength/2"
		}
		if c.DefaultByteAlignment&(c.DefaultByteAlignment-1) != 0 {
			return "defaultByteAlignment", "must be zero or a power of two"
		}
		if !c.PlacementFlags.Valid() {
			return "placementFlags", "has undefined bits"
		}
		return "", ""
	}(); y != "" {
		return fmt.Errorf("%w: %s %s", ErrInvalidConfig, y, e)
	}
	return nil
}

// YAML renders the configuration the way LoadConfig reads it.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
