package config

// Config represents the dirsync.yaml configuration file. Every field is
// optional in a single layer; the merged result is validated.
type Config struct {
	Version int `yaml:"version"`

	// Source and Dest are the two tree roots. Relative paths are resolved
	// against the directory of the file that sets them.
	Source string `yaml:"source,omitempty"`
	Dest   string `yaml:"dest,omitempty"`

	// BlockSize is the read size used when hashing. Zero means the default.
	BlockSize int `yaml:"block_size,omitempty"`

	OnError string `yaml:"on_error,omitempty"` // "fail-fast", "continue"
	Strict  *bool  `yaml:"strict,omitempty"`

	// Include globs use doublestar syntax; Exclude lines use gitignore syntax.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	TrashDir string `yaml:"trash_dir,omitempty"`
	Manifest string `yaml:"manifest,omitempty"`
	Lock     *bool  `yaml:"lock,omitempty"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{Version: 1}
}

// StrictMode reports whether strict conflict checking is on. Off by default.
func (c *Config) StrictMode() bool {
	return c.Strict != nil && *c.Strict
}

// LockEnabled reports whether the destination lock is taken. On by default.
func (c *Config) LockEnabled() bool {
	return c.Lock == nil || *c.Lock
}

// Bool returns a pointer to b, for setting optional fields.
func Bool(b bool) *bool {
	return &b
}
