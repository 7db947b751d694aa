package storage

import "path"

// MinIOConfig holds the object storage target for finished export files
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Prefix is prepended to every object key, e.g. "exports/".
	Prefix string
}

// Enabled reports whether uploads are configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// ObjectKey returns the key under which a file with the given name is stored.
func (c MinIOConfig) ObjectKey(name string) string {
	if c.Prefix == "" {
		return name
	}
	return path.Join(c.Prefix, name)
}
