package idemstore

import "fmt"

// Override selects a store for a single call. Zero fields defer to the
// configured defaults.
type Override struct {
	StoreName string
	Driver    Driver
}

// Target is the store a call resolves to.
type Target struct {
	StoreName string
	Driver    Driver
}

// Selector holds the configured default store name and driver.
type Selector struct {
	StoreName string
	Driver    Driver
}

// Resolve applies o over the defaults. It fails with ErrConfiguration when
// no driver or no store name remains, or when the store name contains
// Separator.
func (s Selector) Resolve(o Override) (Target, error) {
	t := Target{StoreName: s.StoreName, Driver: s.Driver}
	if o.StoreName != "" {
		t.StoreName = o.StoreName
	}
	if o.Driver != nil {
		t.Driver = o.Driver
	}
	if t.Driver == nil || t.StoreName == "" {
		return Target{}, ErrConfiguration
	}
	if !ValidName(t.StoreName) {
		return Target{}, fmt.Errorf("%w: store name %q contains %q", ErrConfiguration, t.StoreName, Separator)
	}
	return t, nil
}
