package scheduler

import (
	"fmt"
	"os"
	"price-chain-service/internal/domain/entities"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Target is one pair the keeper refreshes.
type Target struct {
	Variant string `yaml:"variant" mapstructure:"variant"`
	Pair    string `yaml:"pair" mapstructure:"pair"`
	Source  string `yaml:"source" mapstructure:"source"`
}

type targetsFile struct {
	Targets []Target `yaml:"targets"`
}

// LoadTargets reads a YAML file of the form
//
//	targets:
//	  - variant: feed
//	    pair: ETH/USD
//	    source: "0x5f4e..."
func LoadTargets(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keeper targets: %w", err)
	}

	var file targetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keeper targets: %w", err)
	}
	for i, t := range file.Targets {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("target %d: %w", i, err)
		}
	}
	return file.Targets, nil
}

// Validate checks the target's variant, pair and source format.
func (t Target) Validate() error {
	if _, ok := entities.ParseVariant(t.Variant); !ok {
		return fmt.Errorf("unknown variant %q", t.Variant)
	}
	if t.Pair == "" {
		return fmt.Errorf("pair is required")
	}
	if t.Source != "" && !common.IsHexAddress(t.Source) {
		return fmt.Errorf("invalid source address %q", t.Source)
	}
	return nil
}

func (t Target) sourceAddress() common.Address {
	if t.Source == "" {
		return common.Address{}
	}
	return common.HexToAddress(t.Source)
}
