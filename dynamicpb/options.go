package dynamicpb

import (
	"github.com/protocore/protocore/extreg"
	"github.com/protocore/protocore/wireformat"
)

// ParseOptions configures Builder.MergeWireFrom / Unmarshal (spec §4.4,
// "Configuration" in the ambient stack): how deep nested messages may
// recurse, and where to resolve extension field numbers that aren't part
// of a message's own descriptor.
type ParseOptions struct {
	// MaxRecursionDepth bounds nested-message/group parse recursion. Zero
	// means wireformat.DefaultMaxRecursionDepth.
	MaxRecursionDepth int
	// Extensions resolves field numbers not found on the message
	// descriptor itself. A nil Registry behaves as empty.
	Extensions *extreg.Registry
}

func (o ParseOptions) maxDepth() int {
	if o.MaxRecursionDepth <= 0 {
		return wireformat.DefaultMaxRecursionDepth
	}
	return o.MaxRecursionDepth
}
