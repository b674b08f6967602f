package manifest

// RemoveKeys returns a copy of b without keys. A nil bucket is returned
// unchanged so that an absent bucket stays absent.
func RemoveKeys(b Bucket, keys ...string) Bucket {
	if b == nil {
		return nil
	}
	out := b.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
