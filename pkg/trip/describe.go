package trip

import (
	"fmt"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
)

// ModeCatalog lists and resolves transport modes. *catalog.Catalog satisfies it.
type ModeCatalog interface {
	TransportModes() []catalog.TransportMode
	TransportModeByID(id string) (catalog.TransportMode, bool)
}

// ModeInfo is a transport mode together with the parameters routes are built from
type ModeInfo struct {
	catalog.TransportMode
	Parameters ModeParameters `json:"parameters"`
}

// DescribeMode returns the mode and its parameters, or ErrModeNotFound
func DescribeMode(modes ModeCatalog, id string) (ModeInfo, error) {
	m, ok := modes.TransportModeByID(id)
	if !ok {
		return ModeInfo{}, fmt.Errorf("mode %q: %w", id, ErrModeNotFound)
	}
	p, _ := Parameters(id)
	return ModeInfo{TransportMode: m, Parameters: p}, nil
}

// DescribeModes returns every catalog mode with its parameters, in catalog order
func DescribeModes(modes ModeCatalog) []ModeInfo {
	all := modes.TransportModes()
	out := make([]ModeInfo, 0, len(all))
	for _, m := range all {
		p, _ := Parameters(m.ID)
		out = append(out, ModeInfo{TransportMode: m, Parameters: p})
	}
	return out
}
