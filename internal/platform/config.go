// Package platform describes where the core peripherals live and builds
// the backend the drivers run against.
package platform

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/tinyrange/rvclic/internal/clic"
	"github.com/tinyrange/rvclic/internal/syst"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownBackend = errors.New("platform: unknown backend")
	ErrOutOfRange     = errors.New("platform: value out of range")
)

// Backend kinds
const (
	BackendSim    = "sim"
	BackendDevMem = "devmem"
)

// Address is a physical address written in YAML as a hex string.
type Address uint64

func (a Address) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%x", uint64(a)), nil
}

func (a *Address) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("line %d: invalid address %q: %w", node.Line, s, err)
	}
	*a = Address(v)
	return nil
}

// Config describes one platform.
type Config struct {
	Version int    `yaml:"version"`
	Name    string `yaml:"name"`
	Backend string `yaml:"backend"`
	DevMem  string `yaml:"devmem,omitempty"`

	CLIC CLICConfig `yaml:"clic"`
	SYST SYSTConfig `yaml:"syst"`
}

type CLICConfig struct {
	Base Address `yaml:"base"`
	// CLICMode selects the CLIC mtvec layout.
	CLICMode bool `yaml:"clicMode"`

	// Used when simulating: the clicinfo the model reports.
	MaxInterrupts uint16 `yaml:"maxInterrupts,omitempty"`
	NumInt        uint8  `yaml:"numInt,omitempty"`
	Version       uint8  `yaml:"version,omitempty"`
	LevelBits     uint8  `yaml:"levelBits,omitempty"`
}

type SYSTConfig struct {
	Base Address `yaml:"base"`

	// CLIC inputs the simulated timer halves drive on compare match. Zero
	// selects the default line; interrupt 0 is the software interrupt.
	IRQLow  uint16 `yaml:"irqLow,omitempty"`
	IRQHigh uint16 `yaml:"irqHigh,omitempty"`
}

// Timer interrupt lines of the reference platform.
const (
	DefaultTimerIRQLow  = 10
	DefaultTimerIRQHigh = 11
)

// clicinfo field limits
const (
	maxNumInt    = 1<<6 - 1
	maxLevelBits = 8
)

// Default returns the reference platform, simulated.
func Default() Config {
	var c Config
	c.normalize()
	return c
}

func (c *Config) normalize() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Name == "" {
		c.Name = "default"
	}
	if c.Backend == "" {
		c.Backend = BackendSim
	}
	if c.Backend == BackendDevMem && c.DevMem == "" {
		c.DevMem = "/dev/mem"
	}
	if c.CLIC.Base == 0 {
		c.CLIC.Base = Address(clic.DefaultBase)
	}
	if c.CLIC.MaxInterrupts == 0 {
		c.CLIC.MaxInterrupts = clic.MaxInterrupts
	}
	if c.CLIC.NumInt == 0 {
		c.CLIC.NumInt = 32
	}
	if c.CLIC.LevelBits == 0 {
		c.CLIC.LevelBits = 8
	}
	if c.SYST.Base == 0 {
		c.SYST.Base = Address(syst.DefaultBase)
	}
	if c.SYST.IRQLow == 0 {
		c.SYST.IRQLow = DefaultTimerIRQLow
	}
	if c.SYST.IRQHigh == 0 {
		c.SYST.IRQHigh = DefaultTimerIRQHigh
	}
}

// validate rejects values the simulated registers cannot represent.
func (c Config) validate() error {
	switch c.Backend {
	case BackendSim, BackendDevMem:
	default:
		return fmt.Errorf("%w %q", ErrUnknownBackend, c.Backend)
	}
	if c.CLIC.MaxInterrupts > clic.MaxInterrupts {
		return fmt.Errorf("%w: clic.maxInterrupts %d exceeds %d", ErrOutOfRange, c.CLIC.MaxInterrupts, clic.MaxInterrupts)
	}
	if c.CLIC.NumInt > maxNumInt {
		return fmt.Errorf("%w: clic.numInt %d exceeds %d", ErrOutOfRange, c.CLIC.NumInt, maxNumInt)
	}
	if c.CLIC.LevelBits > maxLevelBits {
		return fmt.Errorf("%w: clic.levelBits %d exceeds %d", ErrOutOfRange, c.CLIC.LevelBits, maxLevelBits)
	}
	for _, irq := range []struct {
		name string
		n    uint16
	}{{"syst.irqLow", c.SYST.IRQLow}, {"syst.irqHigh", c.SYST.IRQHigh}} {
		if irq.n >= c.CLIC.MaxInterrupts {
			return fmt.Errorf("%w: %s %d beyond %d interrupts", ErrOutOfRange, irq.name, irq.n, c.CLIC.MaxInterrupts)
		}
	}
	return nil
}

// Info returns the clicinfo word a simulated CLIC reports for c.
func (c Config) Info() clic.Info {
	return clic.MakeInfo(c.CLIC.MaxInterrupts, c.CLIC.Version, c.CLIC.LevelBits, c.CLIC.NumInt)
}

// Parse decodes and normalizes a YAML platform description.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("platform: parse: %w", err)
	}
	c.normalize()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads a platform description from path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("platform: read %s: %w", path, err)
	}
	return Parse(data)
}

// Marshal encodes c after filling defaults.
func Marshal(c Config) ([]byte, error) {
	c.normalize()
	return yaml.Marshal(&c)
}

// Write stores c at path.
func Write(path string, c Config) error {
	data, err := Marshal(c)
	if err != nil {
		return fmt.Errorf("platform: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("platform: write %s: %w", path, err)
	}
	return nil
}
