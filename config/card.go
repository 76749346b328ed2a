package config

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/spf13/viper"

	"github.com/nandanugg/zone-tracker/module/core/domain"
)

// Card is the tracker card configuration as written by the dashboard user.
type Card struct {
	Entity       string `mapstructure:"entity"`
	UserAgent    string `mapstructure:"user_agent"`
	ScanInterval int    `mapstructure:"scan_interval"`
}

func (c *Card) validate() error {
	el := errors.NewErrorList()

	if c.Entity == "" {
		el.Add(domain.ErrMissingEntity)
	}
	if c.ScanInterval < 0 {
		el.Add(fmt.Errorf("scan_interval: must not be negative, got %d", c.ScanInterval))
	}

	return el.Err()
}

func (c *Card) TrackerConfig() domain.TrackerConfig {
	return domain.TrackerConfig{
		TargetEntity:    c.Entity,
		UserAgentFilter: c.UserAgent,
		ScanInterval:    time.Duration(c.ScanInterval) * time.Second,
	}
}

// LoadCard reads a YAML or JSON card file. The file type follows its extension.
func LoadCard(path string) (*Card, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("scan_interval", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read card %s: %w", path, err)
	}

	var card Card
	if err := v.Unmarshal(&card); err != nil {
		return nil, fmt.Errorf("decode card %s: %w", path, err)
	}

	if err := card.validate(); err != nil {
		return nil, fmt.Errorf("card %s: %w", path, err)
	}
	return &card, nil
}
