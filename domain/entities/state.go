package entities

import (
	"encoding/json"
	"sort"

	pkgerrors "graphdesk-backend/pkg/errors"
)

// LayerSet is an order-insignificant set of layer names. It marshals as a
// sorted JSON array so persisted state is byte-stable.
type LayerSet map[string]struct{}

// NewLayerSet builds a set from the given names, dropping duplicates and blanks.
func NewLayerSet(names ...string) LayerSet {
	s := make(LayerSet, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether the set contains name.
func (s LayerSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the sorted member list.
func (s LayerSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the set.
func (s LayerSet) Clone() LayerSet {
	if s == nil {
		return nil
	}
	c := make(LayerSet, len(s))
	for n := range s {
		c[n] = struct{}{}
	}
	return c
}

// Equal reports whether both sets contain the same names.
func (s LayerSet) Equal(other LayerSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (s LayerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *LayerSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = NewLayerSet(names...)
	return nil
}

// ViewState is the canvas viewport: zoom scale and pan offset. It is persisted
// directly (debounced) and is excluded from the save/discard contract.
type ViewState struct {
	Scale   float64 `json:"scale" validate:"gt=0"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// DefaultViewState returns the initial viewport.
func DefaultViewState() ViewState {
	return ViewState{Scale: 1.0}
}

// Validate checks the view state's invariants.
func (v *ViewState) Validate() error {
	if v.Scale <= 0 {
		return pkgerrors.NewValidationError("view scale must be positive")
	}
	return nil
}

// FilterMode selects how active layers are interpreted.
type FilterMode string

const (
	FilterModeInclude FilterMode = "include"
	FilterModeExclude FilterMode = "exclude"
)

// FilterState is the layer filter applied to the canvas. Unlike view state,
// filter changes participate in the save/discard contract.
type FilterState struct {
	Enabled      bool       `json:"enabled"`
	ActiveLayers LayerSet   `json:"activeLayers"`
	Mode         FilterMode `json:"mode" validate:"oneof=include exclude"`
}

// DefaultFilterState returns the initial (disabled) filter.
func DefaultFilterState() FilterState {
	return FilterState{Mode: FilterModeInclude, ActiveLayers: NewLayerSet()}
}

// Validate checks the filter state's invariants.
func (f *FilterState) Validate() error {
	switch f.Mode {
	case FilterModeInclude, FilterModeExclude:
		return nil
	default:
		return pkgerrors.NewValidationError("filter mode must be include or exclude")
	}
}

// Clone returns a deep copy of the filter state.
func (f FilterState) Clone() FilterState {
	c := f
	c.ActiveLayers = f.ActiveLayers.Clone()
	return c
}

// Equal reports whether two filter states are identical.
func (f FilterState) Equal(other FilterState) bool {
	return f.Enabled == other.Enabled &&
		f.Mode == other.Mode &&
		f.ActiveLayers.Equal(other.ActiveLayers)
}
