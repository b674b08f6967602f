package manifest

import "github.com/leapstack-labs/depcheck/pkg/resolve"

type bucketID int

const (
	bucketDependencies bucketID = iota
	bucketDevDependencies
	bucketPeerDependencies
)

var bucketIDs = [...]bucketID{bucketDependencies, bucketDevDependencies, bucketPeerDependencies}

func (b Buckets) get(id bucketID) Bucket {
	switch id {
	case bucketDependencies:
		return b.Dependencies
	case bucketDevDependencies:
		return b.DevDependencies
	default:
		return b.PeerDependencies
	}
}

func (b *Buckets) set(id bucketID, v Bucket) {
	switch id {
	case bucketDependencies:
		b.Dependencies = v
	case bucketDevDependencies:
		b.DevDependencies = v
	default:
		b.PeerDependencies = v
	}
}

// packageClass separates packages consumed at runtime from tooling that is
// only ever installed for local development.
type packageClass int

const (
	runtimePackage packageClass = iota
	devOnlyPackage
)

// span selects the profiles a version is resolved over.
type span int

const (
	spanApplicable span = iota
	spanAll
)

// assignment writes the packages of one class into one bucket.
type assignment struct {
	bucket bucketID
	class  packageClass
	mode   resolve.Mode
	span   span
}

// placement is the bucket policy of a package kind. A derived package is
// stripped from every bucket that no assignment writes its class into.
type placement struct {
	assignments []assignment
}

func (p placement) classesFor(id bucketID) map[packageClass]bool {
	out := make(map[packageClass]bool, 2)
	for _, a := range p.assignments {
		if a.bucket == id {
			out[a.class] = true
		}
	}
	return out
}

var placements = map[Kind]placement{
	// Applications pin what they ship against the newest supported host
	// version. Tooling goes to devDependencies at the oldest one.
	KindApp: {assignments: []assignment{
		{bucket: bucketDependencies, class: runtimePackage, mode: resolve.Direct, span: spanApplicable},
		{bucket: bucketDevDependencies, class: devOnlyPackage, mode: resolve.Development, span: spanApplicable},
	}},
	// Libraries publish a peer range over every supported host version and
	// develop against the oldest applicable one.
	KindLibrary: {assignments: []assignment{
		{bucket: bucketPeerDependencies, class: runtimePackage, mode: resolve.Peer, span: spanAll},
		{bucket: bucketDevDependencies, class: runtimePackage, mode: resolve.Development, span: spanApplicable},
		{bucket: bucketDevDependencies, class: devOnlyPackage, mode: resolve.Development, span: spanApplicable},
	}},
}
