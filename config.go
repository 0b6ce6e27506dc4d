package archon

// Config holds the tunables a World is built with. The zero value is never
// used directly; NewWorld always starts from defaultConfig and applies
// ConfigOptions on top.
type Config struct {
	initialDirectoryCap int
	initialArchetypeCap int
}

func defaultConfig() Config {
	return Config{
		initialDirectoryCap: 64,
		initialArchetypeCap: 8,
	}
}

// ConfigOption customizes a World at construction time.
type ConfigOption func(*Config)

// WithInitialDirectoryCapacity preallocates room for n entities up front.
func WithInitialDirectoryCapacity(n int) ConfigOption {
	return func(c *Config) { c.initialDirectoryCap = n }
}

// WithInitialArchetypeCapacity preallocates room for n distinct archetypes
// up front.
func WithInitialArchetypeCapacity(n int) ConfigOption {
	return func(c *Config) { c.initialArchetypeCap = n }
}
