package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration. Keys match the command-line flag names.
type File struct {
	Host              *string `toml:"host" yaml:"host"`
	Port              *int    `toml:"port" yaml:"port"`
	ReadPort          *int    `toml:"read-port" yaml:"read-port"`
	WritePort         *int    `toml:"write-port" yaml:"write-port"`
	Output            *string `toml:"output" yaml:"output"`
	Transport         *string `toml:"transport" yaml:"transport"`
	Nickname          *string `toml:"nickname" yaml:"nickname"`
	Token             *string `toml:"token" yaml:"token"`
	Message           *string `toml:"message" yaml:"message"`
	RetryFreeAttempts *int    `toml:"retry-free-attempts" yaml:"retry-free-attempts"`
	RetryDelay        *string `toml:"retry-delay" yaml:"retry-delay"`
	Timestamps        *bool   `toml:"timestamps" yaml:"timestamps"`
}

// ReadFile decodes a .toml, .yaml or .yml file. Unknown keys are errors.
func ReadFile(path string) (File, error) {
	var f File

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.DecodeFile(path, &f)
		if err != nil {
			return File{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, key := range undecoded {
				keys = append(keys, key.String())
			}
			return File{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		file, err := os.Open(path)
		if err != nil {
			return File{}, fmt.Errorf("load config %s: %w", path, err)
		}
		defer file.Close()

		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return File{}, fmt.Errorf("load config %s: unsupported format (want .toml, .yaml or .yml)", path)
	}

	if f.RetryDelay != nil {
		if _, err := ParseDelay(*f.RetryDelay); err != nil {
			return File{}, err
		}
	}
	return f, nil
}

// Values returns the keys that were set in the file.
func (f File) Values() map[string]any {
	values := make(map[string]any)
	setString(values, KeyHost, f.Host)
	setInt(values, KeyPort, f.Port)
	setInt(values, KeyReadPort, f.ReadPort)
	setInt(values, KeyWritePort, f.WritePort)
	setString(values, KeyOutput, f.Output)
	setString(values, KeyTransport, f.Transport)
	setString(values, KeyNickname, f.Nickname)
	setString(values, KeyToken, f.Token)
	setString(values, KeyMessage, f.Message)
	setInt(values, KeyRetryFreeAttempts, f.RetryFreeAttempts)
	setString(values, KeyRetryDelay, f.RetryDelay)
	if f.Timestamps != nil {
		values[KeyTimestamps] = *f.Timestamps
	}
	return values
}

func setString(values map[string]any, key string, v *string) {
	if v != nil {
		values[key] = strings.TrimSpace(*v)
	}
}

func setInt(values map[string]any, key string, v *int) {
	if v != nil {
		values[key] = *v
	}
}

// ParseDelay reads a retry delay. A bare number is seconds, anything else
// must be a Go duration such as "500ms" or "3s".
func ParseDelay(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return 0, fmt.Errorf("parse retry-delay: %q is not a number of seconds", raw)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse retry-delay: %w", err)
	}
	return d, nil
}
