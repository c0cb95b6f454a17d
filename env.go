package angrnative

import (
	"runtime"
	"sort"
	"strings"
)

// Overlay maps environment variable names to resolved paths.
type Overlay map[string]string

// Keys returns the variable names in sorted order.
func (o Overlay) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Environ returns base with the overlay applied. Entries of base are kept
// unless the overlay sets the same variable; base itself is not modified.
func (o Overlay) Environ(base []string) []string {
	env := make([]string, 0, len(base)+len(o))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if o.has(name) {
			continue
		}
		env = append(env, kv)
	}
	for _, k := range o.Keys() {
		env = append(env, k+"="+o[k])
	}
	return env
}

// Merge returns a new overlay holding o's entries followed by extra's.
func (o Overlay) Merge(extra map[string]string) Overlay {
	out := make(Overlay, len(o)+len(extra))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (o Overlay) has(name string) bool {
	if _, ok := o[name]; ok {
		return true
	}
	// Windows environment names are case-insensitive.
	if runtime.GOOS == platformWindows {
		for k := range o {
			if strings.EqualFold(k, name) {
				return true
			}
		}
	}
	return false
}
