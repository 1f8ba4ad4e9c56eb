package uipkg

// Package is a decoded UI package.
type Package interface {
	Name() string
	// Dependencies returns the names of the packages this one requires.
	Dependencies() []string
}

// Decoder turns raw package bytes into a Package and drops it again.
type Decoder interface {
	// Decode parses data; name is the asset path prefix the package was
	// requested under.
	Decode(data []byte, name string) (Package, error)
	// Remove drops a previously decoded package.
	Remove(name string)
}

// PackageLoader fetches package bytes asynchronously. done is called exactly
// once, from any goroutine; empty data signals failure.
type PackageLoader interface {
	LoadPackageBytes(name string, done func(data []byte))
}

// Callback receives the loaded package, or nil when the load failed or the
// entry was torn down before it resolved.
type Callback func(pkg Package)
