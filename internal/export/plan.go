package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlan is wrapped by every plan validation failure.
var ErrInvalidPlan = errors.New("invalid export plan")

// Plan names what one run exports. Kind is the output file prefix.
type Plan struct {
	Kind        string
	Collections []string
	// Stream writes documents as they are read instead of materializing
	// every collection first.
	Stream bool
}

// FullPlan exports the given collections under kind.
func FullPlan(kind string, collections []string) Plan {
	return Plan{Kind: kind, Collections: append([]string(nil), collections...)}
}

// CollectionPlan exports a single collection. kind defaults to the
// collection name.
func CollectionPlan(collection, kind string) Plan {
	if kind == "" {
		kind = collection
	}
	return Plan{Kind: kind, Collections: []string{collection}}
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.Kind) == "" {
		return fmt.Errorf("%w: empty kind", ErrInvalidPlan)
	}
	if strings.ContainsAny(p.Kind, `/\`) || p.Kind == "." || p.Kind == ".." {
		return fmt.Errorf("%w: kind %q is not a valid file name prefix", ErrInvalidPlan, p.Kind)
	}
	if len(p.Collections) == 0 {
		return fmt.Errorf("%w: no collections", ErrInvalidPlan)
	}
	seen := make(map[string]bool, len(p.Collections))
	for _, c := range p.Collections {
		if c == "" {
			return fmt.Errorf("%w: empty collection name", ErrInvalidPlan)
		}
		if seen[c] {
			return fmt.Errorf("%w: collection %q listed twice", ErrInvalidPlan, c)
		}
		seen[c] = true
	}
	return nil
}
