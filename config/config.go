// Package config loads .qu run files. They are YAML documents, and JSON ones
// since JSON is valid YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"qubot/meta"
	"qubot/reward"
)

var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

type Config struct {
	URL          string           `yaml:"url" validate:"omitempty,url"`
	HTMLFile     string           `yaml:"html_file"`
	Seed         uint64           `yaml:"seed"`
	Reward       RewardPreset     `yaml:"reward_func"`
	TerminalInfo TerminalInfo     `yaml:"terminal_info"`
	Model        ModelParameters  `yaml:"model_parameters"`
	Driver       DriverParameters `yaml:"driver_parameters"`
}

type ModelParameters struct {
	Alpha         float64 `yaml:"alpha" validate:"gt=0,lte=1"`
	Gamma         float64 `yaml:"gamma" validate:"gte=0,lte=1"`
	Epsilon       float64 `yaml:"epsilon" validate:"gte=0,lte=1"`
	Decay         float64 `yaml:"decay" validate:"gt=0"`
	TrainEpisodes int     `yaml:"train_episodes" validate:"gte=0"`
	TestEpisodes  int     `yaml:"test_episodes" validate:"gte=0"`
	StepLimit     int     `yaml:"step_limit" validate:"gte=1"`
}

type DriverParameters struct {
	MaxURLs    int           `yaml:"max_urls" validate:"gte=1"`
	Retries    int           `yaml:"retries" validate:"gte=1"`
	RetryDelay time.Duration `yaml:"retry_delay" validate:"gte=0"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	RemoteURL  string        `yaml:"remote_url" validate:"omitempty,url"`
	Headless   bool          `yaml:"headless"`
}

// UnmarshalYAML reads bare numbers in timeout and retry_delay as seconds,
// duration strings ("250ms") as themselves.
func (d *DriverParameters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Value != "timeout" && key.Value != "retry_delay" {
				continue
			}
			if tag := value.ShortTag(); tag != "!!int" && tag != "!!float" {
				continue
			}
			seconds, err := strconv.ParseFloat(value.Value, 64)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrInvalid, key.Value, err)
			}
			value.Tag = "!!str"
			value.Value = time.Duration(seconds * float64(time.Second)).String()
		}
	}

	type plain DriverParameters
	return node.Decode((*plain)(d))
}

// RewardPreset is a reward function resolved while decoding, from a preset
// name or its integer key.
type RewardPreset struct {
	reward.Preset
}

func (r *RewardPreset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: reward_func must be a name or a number", ErrInvalid)
	}
	p, err := reward.ParsePreset(node.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	r.Preset = p
	return nil
}

// Default returns a configuration holding every default value.
func Default() Config {
	return Config{
		Reward: RewardPreset{reward.Encourage},
		Model: ModelParameters{
			Alpha:         meta.ALPHA,
			Gamma:         meta.GAMMA,
			Epsilon:       meta.EPSILON,
			Decay:         meta.DECAY,
			TrainEpisodes: meta.TRAIN_EPISODES,
			TestEpisodes:  meta.TEST_EPISODES,
			StepLimit:     meta.STEP_LIMIT,
		},
		Driver: DriverParameters{
			MaxURLs:    meta.MAX_URLS,
			Retries:    meta.RETRIES,
			RetryDelay: meta.RETRY_DELAY_SECONDS * time.Second,
			Timeout:    meta.TIMEOUT_SECONDS * time.Second,
			Headless:   true,
		},
	}
}

// Load reads and validates a .qu file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.URL == "" && c.HTMLFile == "" {
		return fmt.Errorf("%w: missing url or html_file", ErrInvalid)
	}
	if !c.TerminalInfo.IsSet() {
		return fmt.Errorf("%w: missing terminal_info", ErrInvalid)
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) RewardFunc() reward.Func {
	fn, err := c.Reward.Func()
	if err != nil {
		// Presets are checked while decoding
		panic(err)
	}
	return fn
}
