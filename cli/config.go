package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
)

// ConfigPaths are the TOML files flag defaults are read from, in order of
// precedence.
var ConfigPaths = []string{".coin.toml", "~/.config/coin/config.toml"}

// TOML is a kong.ConfigurationLoader reading flag values from a TOML
// document. Keys are flag names with dashes replaced by underscores. A table
// named after a command scopes its keys to that command:
//
//	interval = "weekly"
//
//	[register]
//	max_desc = 30
func TOML(r io.Reader) (kong.Resolver, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (interface{}, error) {
		name := strings.ReplaceAll(flag.Name, "-", "_")
		keys := []string{name}
		if parent != nil && parent.Command != nil {
			keys = append([]string{parent.Command.Name + "." + name}, keys...)
		}
		for _, key := range keys {
			if !tree.Has(key) {
				continue
			}
			return configValue(tree.Get(key))
		}
		return nil, nil
	}
	return f, nil
}

func configValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case *toml.Tree:
		return nil, fmt.Errorf("unexpected table in configuration")
	case []interface{}:
		values := make([]string, len(v))
		for i, e := range v {
			values[i] = fmt.Sprint(e)
		}
		return strings.Join(values, ","), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// LoadEnv loads environment variables from .env files, so COIN_* variables
// can provide flag defaults. Missing files are ignored and variables already
// set in the environment win.
func LoadEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", filename, err)
		}
	}
	return nil
}
