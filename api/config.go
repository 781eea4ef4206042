package api

import "errors"

type Config struct {
	Addr     string `yaml:"addr"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`

	// BaseID is the upstream base all gateway routes read from.
	BaseID string `yaml:"base_id"`

	TrustedOrigins []string `yaml:"trusted_origins"`
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("gateway server address is required")
	}
	if c.BaseID == "" {
		return errors.New("upstream base id is required")
	}

	return nil
}
