package executor

import (
	"sort"
	"strings"
)

// mergeEnviron layers env maps over a base "KEY=VALUE" environment. Later
// layers override earlier keys and the base. The overlay portion of the
// result is sorted for deterministic behavior.
func mergeEnviron(base []string, layers ...map[string]string) []string {
	overlay := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			overlay[k] = v
		}
	}
	if len(overlay) == 0 {
		return base
	}

	out := make([]string, 0, len(base)+len(overlay))
	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if _, overridden := overlay[key]; !overridden {
			out = append(out, kv)
		}
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overlay[k])
	}
	return out
}
