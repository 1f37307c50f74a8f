package cache

// ExtractKeyOpts are the extract options that change its result.
type ExtractKeyOpts struct {
	RootGroup int64 `json:"root_group"`
	Strict    bool  `json:"strict"`
}

// Keyer names cache entries.
type Keyer interface {
	// ExtractKey names the extract of the snapshot identified by fingerprint.
	ExtractKey(fingerprint string, opts ExtractKeyOpts) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ExtractKey hashes the fingerprint together with the options.
func (DefaultKeyer) ExtractKey(fingerprint string, opts ExtractKeyOpts) string {
	return hashKey("extract", fingerprint, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, so several deployments can share
// one Redis instance without seeing each other's entries.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// A nil inner keyer means [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ExtractKey generates a prefixed extract key.
func (k *ScopedKeyer) ExtractKey(fingerprint string, opts ExtractKeyOpts) string {
	return k.prefix + k.inner.ExtractKey(fingerprint, opts)
}
