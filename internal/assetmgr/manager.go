// Package assetmgr is the entry point game code uses to acquire UI packages
// and load their assets. All methods run on the loop goroutine; loader
// completions are queued and applied by Pump.
package assetmgr

import (
	"errors"
	"fmt"

	"github.com/l1jgo/uiasset/internal/asset"
	"github.com/l1jgo/uiasset/internal/core/event"
	"github.com/l1jgo/uiasset/internal/core/intake"
	"github.com/l1jgo/uiasset/internal/uipkg"
	"go.uber.org/zap"
)

var ErrUnknownID = errors.New("unknown package id")

// Loader fetches package bytes and asset payloads.
type Loader interface {
	uipkg.PackageLoader
	uipkg.AssetLoader
}

// NameMapper resolves package ids to names.
type NameMapper interface {
	PackageNameByID(id string) (string, bool)
}

type Option func(*Manager)

func WithMapping(m NameMapper) Option {
	return func(mgr *Manager) { mgr.mapping = m }
}

func WithBus(b *event.Bus) Option {
	return func(mgr *Manager) { mgr.bus = b }
}

func WithUnloadImmediately(v bool) Option {
	return func(mgr *Manager) { mgr.unloadImmediately = v }
}

type Manager struct {
	reg     *uipkg.Registry
	bridge  *uipkg.RefBridge
	intake  *intake.Queue
	mapping NameMapper
	bus     *event.Bus

	unloadImmediately bool
	log               *zap.Logger
}

func New(loader Loader, decoder uipkg.Decoder, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		intake:            intake.NewQueue(),
		unloadImmediately: true,
		log:               log.Named("assetmgr"),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.reg = uipkg.NewRegistry(loader, decoder, log).WithIntake(m.intake).WithBus(m.bus)
	m.reg.SetUnloadImmediately(m.unloadImmediately)
	m.bridge = uipkg.NewRefBridge(m.reg, loader, log)
	return m
}

// Acquire takes a reference on name, loading it if needed. cb may be nil.
func (m *Manager) Acquire(name string, cb uipkg.Callback) {
	m.reg.AddPackage(name, cb, true)
}

// Preload starts loading name without taking a reference.
func (m *Manager) Preload(name string, cb uipkg.Callback) {
	m.reg.AddPackage(name, cb, false)
}

func (m *Manager) AcquireByID(id string, cb uipkg.Callback) error {
	name, err := m.resolve(id)
	if err != nil {
		return err
	}
	m.Acquire(name, cb)
	return nil
}

func (m *Manager) Release(name string) error {
	return m.reg.ReleaseRef(name)
}

func (m *Manager) ReleaseByID(id string) error {
	name, err := m.resolve(id)
	if err != nil {
		return err
	}
	return m.reg.ReleaseRef(name)
}

func (m *Manager) ForceUnload(name string) bool {
	return m.reg.ForceUnload(name)
}

func (m *Manager) ForceUnloadByID(id string) error {
	name, err := m.resolve(id)
	if err != nil {
		return err
	}
	if !m.reg.ForceUnload(name) {
		return fmt.Errorf("force unload %q: %w", name, uipkg.ErrUnknownPackage)
	}
	return nil
}

func (m *Manager) UnloadUnused() int { return m.reg.UnloadUnused() }
func (m *Manager) ForceUnloadAll()   { m.reg.ForceUnloadAll() }

func (m *Manager) SetUnloadImmediately(v bool) { m.reg.SetUnloadImmediately(v) }
func (m *Manager) UnloadImmediately() bool     { return m.reg.UnloadImmediately() }

// LoadAsset loads one texture or audio asset of an acquired package.
func (m *Manager) LoadAsset(req uipkg.AssetRequest, done func(*asset.Handle)) error {
	return m.bridge.LoadAsset(req, done)
}

// Pump applies every queued loader completion and returns how many ran.
func (m *Manager) Pump() int { return m.intake.Drain() }

// Pending returns the number of queued completions.
func (m *Manager) Pending() int { return m.intake.Len() }

func (m *Manager) Snapshot() []uipkg.Stat                { return m.reg.Snapshot() }
func (m *Manager) Lookup(name string) (uipkg.Stat, bool) { return m.reg.Lookup(name) }

// LiveAssets returns the asset handles currently bound to a package.
func (m *Manager) LiveAssets() []*asset.Handle { return m.bridge.Live() }

// Close disposes live assets, tears every package down and discards queued
// completions. Loads still in flight arrive stale and are dropped by Pump.
// A package a callback re-acquires during Close is left to the caller.
func (m *Manager) Close() {
	assets := m.bridge.Len()
	m.bridge.Close()
	packages := m.reg.Len()
	m.reg.ForceUnloadAll()
	drained := m.intake.Drain()
	m.log.Info("asset manager closed",
		zap.Int("assets", assets),
		zap.Int("packages", packages),
		zap.Int("drained", drained),
	)
}

func (m *Manager) resolve(id string) (string, error) {
	if m.mapping == nil {
		return "", fmt.Errorf("resolve %q: %w: no mapping loaded", id, ErrUnknownID)
	}
	name, ok := m.mapping.PackageNameByID(id)
	if !ok {
		return "", fmt.Errorf("resolve %q: %w", id, ErrUnknownID)
	}
	return name, nil
}
