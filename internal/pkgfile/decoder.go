package pkgfile

import (
	"fmt"

	"github.com/l1jgo/uiasset/internal/uipkg"
	"go.uber.org/zap"
)

// Package is a decoded descriptor.
type Package struct {
	desc   *Descriptor
	prefix string
	digest string
}

func (p *Package) Name() string   { return p.desc.Name }
func (p *Package) ID() string     { return p.desc.ID }
func (p *Package) Prefix() string { return p.prefix }
func (p *Package) Digest() string { return p.digest }
func (p *Package) Items() []Item  { return p.desc.Items }

// Dependencies returns the declared dependency names.
func (p *Package) Dependencies() []string {
	names := make([]string, 0, len(p.desc.Dependencies))
	for _, d := range p.desc.Dependencies {
		names = append(names, d.Name)
	}
	return names
}

// Item looks up a declared asset by name.
func (p *Package) Item(name string) (Item, bool) {
	for _, it := range p.desc.Items {
		if it.Name == name {
			return it, true
		}
	}
	return Item{}, false
}

// Decoder keeps the table of live decoded packages, keyed by name.
// Game loop only.
type Decoder struct {
	packages map[string]*Package
	log      *zap.Logger
}

var _ uipkg.Decoder = (*Decoder)(nil)

func NewDecoder(log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{
		packages: make(map[string]*Package),
		log:      log.Named("pkgfile"),
	}
}

// Decode parses data for the package requested as name. A descriptor
// without a name takes the requested one.
func (d *Decoder) Decode(data []byte, name string) (uipkg.Package, error) {
	desc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	if desc.Name == "" {
		desc.Name = name
	}
	if desc.Name != name {
		return nil, fmt.Errorf("decode %s: descriptor declares %q", name, desc.Name)
	}
	if _, exists := d.packages[name]; exists {
		return nil, fmt.Errorf("decode %s: package already added", name)
	}

	pkg := &Package{desc: desc, prefix: name, digest: Digest(data)}
	d.packages[name] = pkg
	d.log.Debug("package decoded",
		zap.String("package", name),
		zap.String("id", desc.ID),
		zap.String("digest", pkg.digest[:16]),
		zap.Int("items", len(desc.Items)),
	)
	return pkg, nil
}

// Remove drops name from the live table.
func (d *Decoder) Remove(name string) {
	delete(d.packages, name)
}

// Get returns a live package.
func (d *Decoder) Get(name string) (*Package, bool) {
	p, ok := d.packages[name]
	return p, ok
}

// Len returns the number of live packages.
func (d *Decoder) Len() int { return len(d.packages) }
