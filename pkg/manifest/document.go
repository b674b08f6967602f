package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Document is a package.json kept as raw top-level fields in their original
// order, so that rewriting the dependency buckets leaves everything else
// exactly as it was.
type Document struct {
	keys   []string
	fields map[string]json.RawMessage
}

// ParseDocument decodes a package.json. The top level must be an object.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("invalid manifest: top level is not an object")
	}

	doc := &Document{fields: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid manifest: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid manifest: unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid manifest: field %q: %w", key, err)
		}
		if _, dup := doc.fields[key]; !dup {
			doc.keys = append(doc.keys, key)
		}
		doc.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid manifest: trailing data after top-level object")
	}
	return doc, nil
}

// Manifest returns the typed view of the document.
func (d *Document) Manifest() (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(d.raw(), &m); err != nil {
		return Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}
	return m, nil
}

// Apply returns a copy of d with its dependency buckets replaced by b.
// A bucket that was absent and is still empty stays absent; new buckets are
// appended after the existing fields.
func (d *Document) Apply(b Buckets) (*Document, error) {
	out := &Document{
		keys:   append([]string(nil), d.keys...),
		fields: make(map[string]json.RawMessage, len(d.fields)+3),
	}
	for k, v := range d.fields {
		out.fields[k] = v
	}

	for _, f := range []struct {
		key    string
		bucket Bucket
	}{
		{"dependencies", b.Dependencies},
		{"devDependencies", b.DevDependencies},
		{"peerDependencies", b.PeerDependencies},
	} {
		_, existed := out.fields[f.key]
		if !existed && len(f.bucket) == 0 {
			continue
		}
		raw, err := marshalBucket(f.bucket)
		if err != nil {
			return nil, err
		}
		if !existed {
			out.keys = append(out.keys, f.key)
		}
		out.fields[f.key] = raw
	}
	return out, nil
}

// marshalBucket encodes b with sorted keys and without HTML escaping, so
// ranges such as ">=0.63" are written as is.
func marshalBucket(b Bucket) (json.RawMessage, error) {
	if b == nil {
		b = Bucket{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string(b)); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}

// Encode renders the document with two-space indentation and a trailing
// newline, the layout package managers write.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if len(d.keys) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}
	buf.WriteString("{\n")
	for i, k := range d.keys {
		key, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(key)
		buf.WriteString(": ")
		if err := json.Indent(&buf, d.fields[k], "  ", "  "); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		if i < len(d.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

func (d *Document) raw() []byte {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(k)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(d.fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
