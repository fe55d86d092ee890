package metadata

import "strings"

// Tag is one Vorbis-comment key/value pair.
type Tag struct {
	Key   string
	Value string
}

// Destination is the ordered Vorbis-comment tag set written to the output
// file, plus an optional embedded picture. Key order and per-key value order
// are both preserved; multi-valued fields appear as repeated keys.
type Destination struct {
	Tags    []Tag
	Picture *Picture
}

// Add appends one key/value pair, preserving insertion order.
func (d *Destination) Add(key, value string) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if key == "" || value == "" {
		return
	}
	d.Tags = append(d.Tags, Tag{Key: key, Value: value})
}

// Values returns every value recorded under key, in insertion order.
func (d Destination) Values(key string) []string {
	key = strings.ToUpper(strings.TrimSpace(key))
	var values []string
	for _, tag := range d.Tags {
		if tag.Key == key {
			values = append(values, tag.Value)
		}
	}
	return values
}

// First returns the first value recorded under key, or "".
func (d Destination) First(key string) string {
	if values := d.Values(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// Keys returns the distinct keys in first-appearance order.
func (d Destination) Keys() []string {
	seen := make(map[string]struct{}, len(d.Tags))
	keys := make([]string, 0, len(d.Tags))
	for _, tag := range d.Tags {
		if _, ok := seen[tag.Key]; ok {
			continue
		}
		seen[tag.Key] = struct{}{}
		keys = append(keys, tag.Key)
	}
	return keys
}
