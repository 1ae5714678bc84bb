// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package config loads and saves the daemon's configuration and genesis
// documents.
package config

import (
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gitlab.com/accumulatenetwork/tokenledger/pkg/errors"
)

const (
	// DefaultFile is the name of the configuration file in the work directory.
	DefaultFile = "tokend.toml"

	// EnvPrefix is the prefix of environment variables that override the
	// configuration, e.g. TOKEND_API_LISTEN.
	EnvPrefix = "TOKEND"
)

type Config struct {
	file string
	fs   fs.FS

	// DotEnv enables expansion of ${VAR} from a .env file next to the
	// configuration file.
	DotEnv  bool   `json:"dotEnv" mapstructure:"dot-env"`
	Genesis string `json:"genesis" mapstructure:"genesis" validate:"required"`

	Logging         Logging         `json:"logging" mapstructure:"logging"`
	Storage         Storage         `json:"storage" mapstructure:"storage"`
	API             API             `json:"api" mapstructure:"api"`
	Instrumentation Instrumentation `json:"instrumentation" mapstructure:"instrumentation"`
	Consensus       Consensus       `json:"consensus" mapstructure:"consensus"`
	Snapshot        Snapshot        `json:"snapshot" mapstructure:"snapshot"`
}

type Logging struct {
	Format string `json:"format" mapstructure:"format" validate:"omitempty,oneof=text plain json"`
	Rules  string `json:"rules" mapstructure:"rules"`
}

type Storage struct {
	Type string `json:"type" mapstructure:"type" validate:"required,oneof=memory bolt badger leveldb"`
	Path string `json:"path" mapstructure:"path" validate:"required_unless=Type memory"`
}

type API struct {
	Listen            string   `json:"listen" mapstructure:"listen" validate:"required,listen_addr"`
	CorsOrigins       []string `json:"corsOrigins" mapstructure:"cors-origins"`
	ReadHeaderTimeout Duration `json:"readHeaderTimeout" mapstructure:"read-header-timeout"`
}

type Instrumentation struct {
	// Listen is the address of the Prometheus endpoint. Empty disables it.
	Listen string `json:"listen" mapstructure:"listen" validate:"omitempty,listen_addr"`
}

type Consensus struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Listen    string `json:"listen" mapstructure:"listen" validate:"required_if=Enabled true"`
	Transport string `json:"transport" mapstructure:"transport" validate:"omitempty,oneof=socket grpc"`
}

type Snapshot struct {
	// Schedule is a cron expression such as "@hourly" or "0 */6 * * *".
	// Empty disables scheduled snapshots.
	Schedule string `json:"schedule" mapstructure:"schedule"`
	Dir      string `json:"dir" mapstructure:"dir" validate:"required_with=Schedule"`

	// Retain is the number of snapshots to keep. Zero keeps all of them.
	Retain int `json:"retain" mapstructure:"retain" validate:"gte=0"`
}

// Duration is a [time.Duration] that is written as a string such as "10s".
type Duration time.Duration

func (d Duration) Get() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Genesis: "genesis.yaml",
		Logging: Logging{
			Format: "text",
			Rules:  "error;ledger=info;storage=info;api=info;abci=info;snapshot=info;tokend=info",
		},
		Storage: Storage{
			Type: "bolt",
			Path: "data/ledger.db",
		},
		API: API{
			Listen:            "127.0.0.1:26660",
			CorsOrigins:       []string{"*"},
			ReadHeaderTimeout: Duration(10 * time.Second),
		},
		Instrumentation: Instrumentation{
			Listen: "127.0.0.1:26661",
		},
		Consensus: Consensus{
			Listen:    "tcp://127.0.0.1:26658",
			Transport: "socket",
		},
		Snapshot: Snapshot{
			Dir:    "snapshots",
			Retain: 10,
		},
	}
}

// Load loads the configuration file, applies overrides from v (environment
// variables and bound flags), and validates the result. v may be nil.
func Load(file string, v *viper.Viper) (*Config, error) {
	c := Default()
	err := c.LoadFrom(file)
	if err != nil {
		return nil, err
	}

	err = c.Override(v)
	if err != nil {
		return nil, err
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) FilePath() string     { return c.file }
func (c *Config) SetFilePath(p string) { c.file = p }

// Path resolves a path relative to the directory of the configuration file.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.file == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.file), p)
}

func (c *Config) LoadFrom(file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return errors.BadRequest.WithFormat("resolve %s: %w", file, err)
	}

	err = c.LoadFromFS(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
	if err != nil {
		return err
	}
	c.file = abs
	return nil
}

func (c *Config) LoadFromFS(fsys fs.FS, file string) error {
	err := readFile(fsys, file, c)
	if err != nil {
		return err
	}

	c.file = file
	c.fs = fsys
	return c.applyDotEnv()
}

func (c *Config) applyDotEnv() error {
	if !c.DotEnv {
		return nil
	}

	file := ".env"
	if c.file != "" {
		file = filepath.Join(filepath.Dir(c.file), file)
	}

	var expand func(name string) string
	var errs []error

	f, err := c.fs.Open(file)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()

		env, err := godotenv.Parse(f)
		if err != nil {
			return errors.BadRequest.WithFormat("parse %s: %w", file, err)
		}

		expand = func(name string) string {
			value, ok := env[name]
			if ok {
				return value
			}
			errs = append(errs, fmt.Errorf("%q is not defined", name))
			return fmt.Sprintf("#!MISSING(%q)", name)
		}

	case errors.Is(err, fs.ErrNotExist):
		// Only return an error if there is at least one ${VAR}
		expand = func(name string) string {
			if len(errs) == 0 {
				errs = append(errs, err)
			}
			return fmt.Sprintf("#!MISSING(%q)", name)
		}

	default:
		return err
	}

	expandEnv(reflect.ValueOf(c), expand)
	if len(errs) > 0 {
		return errors.BadRequest.WithCauseAndFormat(errors.Join(errs...), "expand %s", file)
	}
	return nil
}

// Override applies TOKEND_* environment variables and any flags bound to v.
// Keys are the kebab-case paths of the file, e.g. api.listen.
func (c *Config) Override(v *viper.Viper) error {
	if v == nil {
		return nil
	}

	m, err := toKebabMap(c)
	if err != nil {
		return errors.EncodingError.Wrap(err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	err = v.MergeConfigMap(m.(map[string]any))
	if err != nil {
		return errors.UnknownError.WithFormat("merge configuration: %w", err)
	}

	// Decode into a fresh value since mapstructure does not truncate slices
	d := new(Config)
	err = v.Unmarshal(d, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return errors.BadRequest.WithFormat("apply overrides: %w", err)
	}

	d.file, d.fs = c.file, c.fs
	*c = *d
	return nil
}

var validate = func() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("listen_addr", validateListenAddr)
	return v
}()

// validateListenAddr accepts host:port where the host may be empty and the
// port may be 0, which binds an ephemeral port.
func validateListenAddr(fl validator.FieldLevel) bool {
	_, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil {
		return false
	}
	_, err = strconv.ParseUint(port, 10, 16)
	return err == nil
}

// Validate checks the configuration's constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err != nil {
		return errors.BadRequest.WithFormat("invalid configuration: %w", err)
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.file == "" {
		return errors.BadRequest.With("not loaded from a file")
	}
	return c.SaveTo(c.file)
}

// SaveTo writes the configuration. The format is chosen by the file's
// extension.
func (c *Config) SaveTo(file string) error {
	return writeFile(file, c)
}
