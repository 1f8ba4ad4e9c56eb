package uipkg

import "errors"

var (
	// ErrUnknownPackage is returned for operations on a name that has no entry.
	ErrUnknownPackage = errors.New("unknown ui package")
	// ErrContractViolation marks refcount misuse: a release at zero, or a
	// package handle stored twice on one entry.
	ErrContractViolation = errors.New("ui package contract violation")
	// ErrUnsupportedKind is returned for asset requests outside the known kinds.
	ErrUnsupportedKind = errors.New("unsupported asset kind")
)
