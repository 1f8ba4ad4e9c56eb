package event

// Package lifecycle events emitted by the registry and the asset bridge.

type PackageRequested struct {
	Name    string
	Version uint64
}

type PackageLoaded struct {
	Name         string
	Version      uint64
	Dependencies []string
}

type PackageLoadFailed struct {
	Name    string
	Version uint64
	Reason  string
}

type PackageUnloaded struct {
	Name    string
	Version uint64
	Loaded  bool // false when torn down while still pending
	Forced  bool
}

// StaleCompletion reports a load result that arrived for a recycled entry.
type StaleCompletion struct {
	Name    string
	Version uint64
	Kind    string // "package", "texture", "audio"
}

// ContractViolation reports refcount misuse (release at zero, double load).
type ContractViolation struct {
	Name   string
	Detail string
}

// OrphanAssetRequest reports an asset request against an unregistered package.
type OrphanAssetRequest struct {
	Package string
	Asset   string
}

type AssetBound struct {
	Package string
	AssetID uint64
	Kind    string
}

type AssetDisposed struct {
	Package string
	AssetID uint64
	Kind    string
}
