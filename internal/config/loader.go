package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// Loader reads configuration from a file and the environment.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with defaults and environment bindings in
// place.
func NewLoader() *Loader {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}
	for key, env := range Keys {
		_ = v.BindEnv(key, env)
	}
	return &Loader{v: v}
}

// Viper exposes the underlying instance so command flags can be bound to
// configuration keys.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load reads configFile, when set, and returns the validated configuration.
// Invalid values are reported together as a *ValidationError.
func (l *Loader) Load(configFile string) (*Config, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
		l.v.SetConfigType("yaml")
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config from %s: %w", configFile, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFile)
	}
	warnUnknownEnv()

	cfg, errs := l.decode()
	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}
	return cfg, nil
}

// Load is a shorthand for NewLoader().Load(configFile).
func Load(configFile string) (*Config, error) {
	return NewLoader().Load(configFile)
}

func (l *Loader) decode() (*Config, []FieldError) {
	d := decoder{v: l.v}
	cfg := &Config{
		Storage: StorageConfig{
			Bucket:    d.str(KeyStorageBucket),
			Endpoint:  d.str(KeyStorageEndpoint),
			Region:    d.str(KeyStorageRegion),
			AccessKey: d.str(KeyStorageAccessKey),
			SecretKey: d.str(KeyStorageSecretKey),
			UseSSL:    d.boolean(KeyStorageUseSSL),
			Dir:       d.str(KeyStorageDir),
		},
		OrganizationID:      d.str(KeyOrganizationID),
		CredentialSecret:    d.str(KeyCredentialSecret),
		CredentialKey:       d.str(KeyCredentialKey),
		CredentialNamespace: d.str(KeyCredentialNamespace),
		RegistryBaseURL:     strings.TrimRight(d.str(KeyRegistryBaseURL), "/"),
		DefinitionKeys:      d.stringList(KeyDefinitionKeys),
		IgnoreFailures:      d.boolean(KeyIgnoreFailures),
		PhysicalResourceID:  d.str(KeyPhysicalResourceID),
		RegistryTimeout:     d.duration(KeyRegistryTimeout),
		Retry: RetryConfig{
			MaxAttempts: d.integer(KeyRetryMaxAttempts),
			BaseDelay:   d.duration(KeyRetryBaseDelay),
		},
		Log: LogConfig{
			Level:  d.str(KeyLogLevel),
			Format: d.str(KeyLogFormat),
		},
	}
	return cfg, d.errs
}

// decoder converts raw values and collects conversion failures.
type decoder struct {
	v    *viper.Viper
	errs []FieldError
}

func (d *decoder) fail(key, format string, args ...interface{}) {
	d.errs = append(d.errs, FieldError{Field: key, Message: fmt.Sprintf(format, args...)})
}

func (d *decoder) str(key string) string {
	return strings.TrimSpace(d.v.GetString(key))
}

func (d *decoder) boolean(key string) bool {
	raw := d.str(key)
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		d.fail(key, "must be true or false, got %q", raw)
	}
	return b
}

func (d *decoder) integer(key string) int {
	raw := d.str(key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		d.fail(key, "must be an integer, got %q", raw)
	}
	return n
}

// duration accepts a Go duration string or a plain number of milliseconds.
func (d *decoder) duration(key string) time.Duration {
	raw := d.str(key)
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		d.fail(key, "must be a duration such as 1500ms or a number of milliseconds, got %q", raw)
	}
	return dur
}

// stringList accepts a JSON array encoded as a string or a YAML list. A
// missing key yields nil.
func (d *decoder) stringList(key string) []string {
	if !d.v.IsSet(key) {
		return nil
	}
	switch raw := d.v.Get(key).(type) {
	case []interface{}:
		out := make([]string, 0, len(raw))
		for i, item := range raw {
			s, ok := item.(string)
			if !ok {
				d.fail(key, "element %d must be a string", i)
				continue
			}
			out = append(out, s)
		}
		return out
	case []string:
		return raw
	default:
		text := strings.TrimSpace(d.v.GetString(key))
		if text == "" {
			return []string{}
		}
		var out []string
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			d.fail(key, "must be a JSON array of strings: %v", err)
			return nil
		}
		if out == nil {
			out = []string{}
		}
		return out
	}
}

// warnUnknownEnv logs DEPLOYER_ variables that match no configuration key.
func warnUnknownEnv() {
	known := make(map[string]bool, len(Keys))
	for _, env := range Keys {
		known[env] = true
	}

	var unknown []string
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") && !known[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		logging.Warn("ConfigLoader", "Ignoring unknown environment variable %s", name)
	}
}
