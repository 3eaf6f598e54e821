// Package catalog holds the fixed list of Stars packages on sale.
package catalog

import "fmt"

// CallbackPrefix precedes the package key in inline button payloads.
const CallbackPrefix = "buy_"

// Package is a purchasable bundle of Stars.
type Package struct {
	Key      string `json:"key"`
	Amount   int64  `json:"amount"`
	Price    int64  `json:"price"`
	Points   int64  `json:"points"`
	Discount int    `json:"discount"`
}

// CallbackData returns the inline button payload selecting p.
func (p Package) CallbackData() string {
	return CallbackPrefix + p.Key
}

// Catalog is an immutable, display-ordered package table.
type Catalog struct {
	packages []Package
	byKey    map[string]Package
}

// New builds a catalog preserving the given order. Keys must be unique.
func New(packages ...Package) (*Catalog, error) {
	c := &Catalog{
		packages: make([]Package, 0, len(packages)),
		byKey:    make(map[string]Package, len(packages)),
	}
	for _, p := range packages {
		if p.Key == "" {
			return nil, fmt.Errorf("catalog: package with empty key")
		}
		if _, dup := c.byKey[p.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate package key %q", p.Key)
		}
		c.packages = append(c.packages, p)
		c.byKey[p.Key] = p
	}
	return c, nil
}

// Default returns the storefront price list.
func Default() *Catalog {
	c, err := New(
		Package{Key: "50", Amount: 50, Price: 80, Points: 1, Discount: 0},
		Package{Key: "75", Amount: 75, Price: 130, Points: 2, Discount: 5},
		Package{Key: "100", Amount: 100, Price: 160, Points: 2, Discount: 10},
		Package{Key: "250", Amount: 250, Price: 380, Points: 4, Discount: 15},
		Package{Key: "500", Amount: 500, Price: 780, Points: 8, Discount: 20},
		Package{Key: "750", Amount: 750, Price: 1300, Points: 12, Discount: 25},
		Package{Key: "1000", Amount: 1000, Price: 1580, Points: 15, Discount: 30},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Packages returns the packages in display order.
func (c *Catalog) Packages() []Package {
	out := make([]Package, len(c.packages))
	copy(out, c.packages)
	return out
}

// Get looks a package up by key.
func (c *Catalog) Get(key string) (Package, bool) {
	p, ok := c.byKey[key]
	return p, ok
}

// FromCallback resolves a buy_<key> payload.
func (c *Catalog) FromCallback(data string) (Package, bool) {
	if len(data) <= len(CallbackPrefix) || data[:len(CallbackPrefix)] != CallbackPrefix {
		return Package{}, false
	}
	return c.Get(data[len(CallbackPrefix):])
}
