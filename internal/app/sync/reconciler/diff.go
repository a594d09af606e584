package reconciler

// Diff compares the desired keys with the observed remote items.
// Missing holds desired keys with no observed item. Extra holds observed items
// whose key is not desired, plus every duplicate of a desired key after the
// first one seen. Neither input is modified and both outputs keep input order.
func Diff[K comparable, T any](desired []K, observed []T, key func(T) K) (missing []K, extra []T) {
	want := make(map[K]bool, len(desired))
	for _, k := range desired {
		want[k] = true
	}

	seen := make(map[K]bool, len(observed))
	for _, item := range observed {
		k := key(item)
		if !want[k] || seen[k] {
			extra = append(extra, item)
			continue
		}
		seen[k] = true
	}

	queued := make(map[K]bool, len(desired))
	for _, k := range desired {
		if seen[k] || queued[k] {
			continue
		}
		queued[k] = true
		missing = append(missing, k)
	}
	return missing, extra
}
