package metadata

import "strconv"

// Header keys set on every envelope the client sends.
const (
	KeyMessageID = "Toolbus-Message-Id"
	KeyType      = "Toolbus-Type"
	KeyAttempt   = "Toolbus-Attempt"
)

// Metadata represents the headers carried alongside an envelope on the broker.
type Metadata map[string]string

func (m Metadata) cloneWithExtra(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	cloned := make(Metadata, size)
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.cloneWithExtra(0)
}

// With returns a cloned metadata map containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.cloneWithExtra(1)
	cloned[key] = value
	return cloned
}

// WithAll returns a cloned metadata map containing the supplied entries.
func (m Metadata) WithAll(entries Metadata) Metadata {
	cloned := m.cloneWithExtra(len(entries))
	for k, v := range entries {
		cloned[k] = v
	}
	return cloned
}

// Attempt returns the request attempt number, or 0 when absent.
func (m Metadata) Attempt() int {
	n, err := strconv.Atoi(m[KeyAttempt])
	if err != nil {
		return 0
	}
	return n
}

// Get, Set and Keys let Metadata act as an OpenTelemetry TextMapCarrier.
func (m Metadata) Get(key string) string {
	return m[key]
}

func (m Metadata) Set(key, value string) {
	m[key] = value
}

func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// New constructs a Metadata map from alternating key/value pairs.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}
