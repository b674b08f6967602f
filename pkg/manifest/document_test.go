package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePackageJSON = `{
  "name": "example-library",
  "version": "1.0.0",
  "main": "lib/index.js",
  "scripts": {
    "test": "jest"
  },
  "dependencies": {
    "react-native": "^0.63.4",
    "invariant": "^2.2.4"
  },
  "depcheck": {
    "kind": "library",
    "capabilities": ["core", "react"],
    "hostVersion": "^0.63 || ^0.64",
    "devHostVersion": "0.64"
  }
}
`

func TestParseDocument_Manifest(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePackageJSON))
	require.NoError(t, err)

	m, err := doc.Manifest()
	require.NoError(t, err)

	assert.Equal(t, "example-library", m.Name)
	assert.Equal(t, Bucket{"react-native": "^0.63.4", "invariant": "^2.2.4"}, m.Dependencies)
	assert.Nil(t, m.DevDependencies)
	require.NotNil(t, m.Kit)
	assert.Equal(t, KindLibrary, m.Kit.Kind)
	assert.Equal(t, []string{"core", "react"}, m.Kit.Capabilities)
	assert.Equal(t, "^0.63 || ^0.64", m.Kit.HostVersion)
	assert.Equal(t, "0.64", m.Kit.DevHostVersion)
}

func TestDocument_ApplyPreservesFieldOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePackageJSON))
	require.NoError(t, err)

	updated, err := doc.Apply(Buckets{
		Dependencies:     Bucket{"invariant": "^2.2.4"},
		PeerDependencies: Bucket{"react-native": "^0.63.4 || ^0.64.0", "react": "16.13.1 || 17.0.1"},
	})
	require.NoError(t, err)

	out, err := updated.Encode()
	require.NoError(t, err)

	assert.Equal(t, `{
  "name": "example-library",
  "version": "1.0.0",
  "main": "lib/index.js",
  "scripts": {
    "test": "jest"
  },
  "dependencies": {
    "invariant": "^2.2.4"
  },
  "depcheck": {
    "kind": "library",
    "capabilities": [
      "core",
      "react"
    ],
    "hostVersion": "^0.63 || ^0.64",
    "devHostVersion": "0.64"
  },
  "peerDependencies": {
    "react": "16.13.1 || 17.0.1",
    "react-native": "^0.63.4 || ^0.64.0"
  }
}
`, string(out))

	// The source document is left alone.
	m, err := doc.Manifest()
	require.NoError(t, err)
	assert.Nil(t, m.PeerDependencies)
}

func TestDocument_ApplyKeepsAbsentEmptyBuckets(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"name": "x", "devDependencies": {"a": "1"}}`))
	require.NoError(t, err)

	updated, err := doc.Apply(Buckets{
		Dependencies:    Bucket{},
		DevDependencies: Bucket{},
	})
	require.NoError(t, err)
	out, err := updated.Encode()
	require.NoError(t, err)

	assert.Equal(t, "{\n  \"name\": \"x\",\n  \"devDependencies\": {}\n}\n", string(out))
}

func TestDocument_EncodeDoesNotEscapeRanges(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"name": "x"}`))
	require.NoError(t, err)

	updated, err := doc.Apply(Buckets{Dependencies: Bucket{"react": ">=16.13.1 <18"}})
	require.NoError(t, err)
	out, err := updated.Encode()
	require.NoError(t, err)

	assert.Contains(t, string(out), `"react": ">=16.13.1 <18"`)
}

func TestDocument_RoundTripIsStable(t *testing.T) {
	doc, err := ParseDocument([]byte(samplePackageJSON))
	require.NoError(t, err)
	first, err := doc.Encode()
	require.NoError(t, err)

	again, err := ParseDocument(first)
	require.NoError(t, err)
	second, err := again.Encode()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestParseDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: ""},
		{name: "array", data: `["a"]`},
		{name: "truncated", data: `{"name": "x"`},
		{name: "trailing data", data: `{"name": "x"} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func TestDiff(t *testing.T) {
	before := []byte("{\n  \"dependencies\": {\n    \"react\": \"16.13.1\"\n  }\n}\n")
	after := []byte("{\n  \"dependencies\": {\n    \"react\": \"17.0.1\"\n  }\n}\n")

	d, err := Diff("package.json", before, after)
	require.NoError(t, err)
	assert.Contains(t, d, "--- a/package.json")
	assert.Contains(t, d, "+++ b/package.json")
	assert.Contains(t, d, `-    "react": "16.13.1"`)
	assert.Contains(t, d, `+    "react": "17.0.1"`)

	d, err = Diff("package.json", before, before)
	require.NoError(t, err)
	assert.Empty(t, d)
}
