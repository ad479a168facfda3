package cache

// ScopedKeyer wraps a Keyer with a prefix for isolation between tenants
// or deployments sharing one Redis.
//
// Example usage:
//
//	// Per-user keys
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Shared catalog keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// ProgramsKey generates a prefixed program list key.
func (k *ScopedKeyer) ProgramsKey() string {
	return k.prefix + k.inner.ProgramsKey()
}

// CoursesKey generates a prefixed course catalog key.
func (k *ScopedKeyer) CoursesKey(program string) string {
	return k.prefix + k.inner.CoursesKey(program)
}

// GraphKey generates a prefixed curriculum graph key.
func (k *ScopedKeyer) GraphKey(program string) string {
	return k.prefix + k.inner.GraphKey(program)
}

// HistoryKey generates a prefixed history key.
func (k *ScopedKeyer) HistoryKey(userID, program string) string {
	return k.prefix + k.inner.HistoryKey(userID, program)
}
