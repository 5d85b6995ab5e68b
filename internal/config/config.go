package config

import "github.com/felo/som-extract/internal/som"

// Config holds application configuration
type Config struct {
	// Server settings for the local upload form
	Host string
	Port string

	// Output settings
	OutputPath string

	// Description written on every row. Empty means "cert<sep><today>".
	Description string

	// Separator between "cert" and the date in the default description
	DescriptionSeparator string

	// Largest accepted upload for the web form
	MaxUploadBytes int64
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Host:                 "localhost",
		Port:                 "8080",
		OutputPath:           "TM_filled.csv",
		DescriptionSeparator: som.DefaultSeparator,
		MaxUploadBytes:       32 << 20,
	}
}

// UseLegacyDescription switches the default description to "cert <today>"
func (c *Config) UseLegacyDescription() {
	c.DescriptionSeparator = som.LegacySeparator
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}
