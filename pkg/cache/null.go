package cache

// NewNullMemo creates a memo that never stores anything.
// Every lookup is a miss, so every caller computes its own value.
// Useful for testing or when caching should be disabled.
func NewNullMemo[K comparable, V any]() *Memo[K, V] {
	m := NewMemo[K, V]()
	m.disabled = true
	return m
}
