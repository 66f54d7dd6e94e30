// Package config loads the chains to watch and the secrets the service runs with.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// UsersSecretEnv names the environment variable holding the secret guarding the users listing.
	UsersSecretEnv = "INDEXER_USERS_SECRET"
)

type Chain struct {
	Name    string   `yaml:"name"`
	ChainID uint64   `yaml:"chainId"`
	RPC     []string `yaml:"rpc"`
	// Contract is the address of the OEP contract emitting Reserved events.
	Contract      string `yaml:"contract"`
	StartBlock    *int64 `yaml:"startBlock"`
	Confirmations uint   `yaml:"confirmations"`
}

func (c *Chain) ContractAddress() common.Address {
	return common.HexToAddress(c.Contract)
}

type Config struct {
	Chains []*Chain `yaml:"chains"`
}

// LoadEnv loads the given dotenv files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %q: %w", f, err)
		}
	}
	return nil
}

// UsersSecret returns the secret guarding the users listing. An empty value disables the listing.
func UsersSecret() string {
	return strings.TrimSpace(os.Getenv(UsersSecretEnv))
}

// Load reads and validates the YAML chains file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.Chains) == 0 {
		return errors.New("at least one chain is required")
	}

	seen := make(map[string]bool, len(c.Chains))
	for i, chain := range c.Chains {
		if chain == nil {
			return fmt.Errorf("chain #%d is empty", i)
		}
		chain.Name = strings.TrimSpace(chain.Name)
		switch {
		case chain.Name == "":
			return fmt.Errorf("chain #%d has no name", i)
		case strings.ContainsAny(chain.Name, `/\`) || chain.Name == "." || chain.Name == "..":
			return fmt.Errorf("chain name %q is not allowed", chain.Name)
		case seen[chain.Name]:
			return fmt.Errorf("chain %q is configured twice", chain.Name)
		case len(chain.RPC) == 0:
			return fmt.Errorf("chain %q has no rpc url", chain.Name)
		case !common.IsHexAddress(chain.Contract):
			return fmt.Errorf("chain %q has an invalid contract address %q", chain.Name, chain.Contract)
		}
		seen[chain.Name] = true
	}
	return nil
}
