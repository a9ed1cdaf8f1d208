package plan

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// PriceRefsByTier assigns provider price ids to tiers.
type PriceRefsByTier map[Tier]PriceRefs

// PriceConfig is read from the environment. File, when set, points at a YAML
// document and takes precedence over the individual variables.
type PriceConfig struct {
	File           string `env:"PLAN_PRICES_FILE"`
	MonthlyPriceID string `env:"PADDLE_PRICE_MONTHLY"`
	YearlyPriceID  string `env:"PADDLE_PRICE_YEARLY"`
}

// Resolve returns the price references described by the config.
func (c PriceConfig) Resolve() (PriceRefsByTier, error) {
	if c.File != "" {
		f, err := os.Open(c.File)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfiguration, err)
		}
		defer f.Close()
		return LoadPriceRefs(f)
	}

	return PriceRefsByTier{
		TierMonthly: {Monthly: c.MonthlyPriceID},
		TierYearly:  {Yearly: c.YearlyPriceID},
	}, nil
}

// priceFile is the YAML layout:
//
//	prices:
//	  MONTHLY:
//	    monthly: pri_01h...
//	  YEARLY:
//	    yearly: pri_01h...
type priceFile struct {
	Prices map[string]PriceRefs `yaml:"prices"`
}

// LoadPriceRefs parses price references from YAML. Tier keys are case-insensitive.
func LoadPriceRefs(r io.Reader) (PriceRefsByTier, error) {
	var doc priceFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Join(ErrInvalidConfiguration, fmt.Errorf("decode price file: %w", err))
	}

	out := make(PriceRefsByTier, len(doc.Prices))
	for key, refs := range doc.Prices {
		tier, err := ParseTier(key)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfiguration, err)
		}
		out[tier] = refs
	}
	return out, nil
}
