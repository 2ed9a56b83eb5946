package datadog

// MergeTags combines tag maps ordered from lowest to highest precedence.
// On a key collision the later map wins; keys that never collide are kept.
// The arguments are applied strictly in order, so the result does not depend
// on map iteration order.
func MergeTags(tags ...map[string]string) map[string]interface{} {
	size := 0
	for _, t := range tags {
		size += len(t)
	}
	merged := make(map[string]interface{}, size)
	for _, t := range tags {
		mergeTagsInto(merged, t)
	}
	return merged
}

// mergeTagsInto extends an existing canonical tag map in place; src wins.
func mergeTagsInto(dst map[string]interface{}, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
