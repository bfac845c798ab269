// Package config holds the command line configuration of gocryptor.
package config

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"

	"github.com/idelchi/gocryptor/internal/encryption"
	"github.com/idelchi/gocryptor/internal/engine"
)

// EnvPrefix prefixes every environment variable read by gocryptor.
const EnvPrefix = "GOCRYPTOR"

// Config holds the application's configuration parameters.
type Config struct {
	// Password the file keys are derived from.
	Password string `mapstructure:"password" yaml:"password" validate:"required,password"`
	// PasswordFile is a file whose first line is the password.
	PasswordFile string `mapstructure:"password-file" yaml:"password-file,omitempty"`

	// Extension appended to encrypted files.
	Extension string `mapstructure:"ext" yaml:"ext" validate:"extension"`
	// Backend providing the cipher.
	Backend string `mapstructure:"backend" yaml:"backend" validate:"backend"`
	// Mode of operation.
	Mode string `mapstructure:"mode" yaml:"mode" validate:"mode"`
	// KeyLength in bytes.
	KeyLength int `mapstructure:"key-length" yaml:"key-length" validate:"oneof=16 24 32"`

	// Parallel is the number of files processed at once.
	Parallel int `mapstructure:"parallel" yaml:"parallel" validate:"min=1"`
	// Delete removes sources after they were processed successfully.
	Delete bool `mapstructure:"delete" yaml:"delete"`
	// PreserveTimestamps copies modification times to the outputs.
	PreserveTimestamps bool `mapstructure:"preserve-timestamps" yaml:"preserve-timestamps"`

	// Output control.
	Quiet   bool `mapstructure:"quiet"   yaml:"quiet"`
	Verbose int  `mapstructure:"verbose" yaml:"verbose"`
	Stats   bool `mapstructure:"stats"   yaml:"stats"`
	Show    bool `mapstructure:"show"    yaml:"-"`

	// From is a JSONC file listing additional files.
	From string `mapstructure:"from" yaml:"from,omitempty"`

	// Decrypt is set by the decrypt command.
	Decrypt bool `mapstructure:"-" yaml:"decrypt"`

	// Files are the positional arguments merged with the entries of From.
	Files []string `mapstructure:"-" yaml:"files" validate:"min=1"`
}

// NewViper returns a viper instance reading GOCRYPTOR_* environment variables
// and, when configFile is set, that file.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", configFile, err)
		}
	}

	return v, nil
}

// Load unmarshals the settings known to v into c.
func (c *Config) Load(v *viper.Viper) error {
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	return nil
}

// Validate validates the configuration against the struct tags
// and checks that the backend provides the mode with the key length.
func (c *Config) Validate() error {
	validate, err := newValidator()
	if err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", translate(err))
	}

	if _, err := c.Job(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	return nil
}

// Job converts the configuration into the job handed to the batch coordinator.
func (c *Config) Job() (*engine.Job, error) {
	backend, err := encryption.ParseBackend(c.Backend)
	if err != nil {
		return nil, err
	}

	mode, err := encryption.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}

	if err := encryption.Supports(backend, mode, c.KeyLength); err != nil {
		return nil, err
	}

	job := &engine.Job{
		Password:           []byte(c.Password),
		Encrypting:         !c.Decrypt,
		Extension:          c.Extension,
		Backend:            backend,
		Mode:               mode,
		KeyLength:          c.KeyLength,
		Parallel:           c.Parallel,
		Delete:             c.Delete,
		PreserveTimestamps: c.PreserveTimestamps,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Display renders the configuration as YAML with the password masked.
func (c Config) Display() (string, error) {
	if c.Password != "" {
		c.Password = "********"
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("rendering configuration: %w", err)
	}

	return string(out), nil
}
