package ethconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/0xsequence/ethbundle/sonic"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pelletier/go-toml/v2"
)

// Config lists the contracts to extract, in order.
type Config struct {
	SmartContracts []string `toml:"smart_contracts" json:"smart_contracts"`
}

// ReadConfig loads a contract list from a .toml file or, for any other
// extension, a JSON file. A file without a smart_contracts field yields an
// empty list.
func ReadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("ethconfig: %s file could not be read: %w", path, err)
	}
	return ParseConfig(data, strings.ToLower(filepath.Ext(path)) == ".toml")
}

func ParseConfig(data []byte, isTOML bool) (Config, error) {
	var cfg Config
	if isTOML {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("ethconfig: toml parsing error: %w", err)
		}
	} else {
		if err := sonic.Config.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("ethconfig: json parsing error: %w", err)
		}
	}
	return cfg, nil
}

// Duplicates returns the names listed more than once, in the order their
// first repeat appears.
func (c Config) Duplicates() []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	reported := mapset.NewThreadUnsafeSet[string]()
	dups := []string{}
	for _, name := range c.SmartContracts {
		if seen.Add(name) {
			continue
		}
		if reported.Add(name) {
			dups = append(dups, name)
		}
	}
	return dups
}
