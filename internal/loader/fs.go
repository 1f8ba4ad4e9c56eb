package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/l1jgo/uiasset/internal/asset"
	"github.com/l1jgo/uiasset/internal/pkgfile"
	"go.uber.org/zap"
)

// FS loads package descriptors and asset payloads from a directory:
//
//	<root>/<package>_fui.bytes
//	<root>/<package>_<asset><ext>
//
// Each request reads on its own goroutine and completes through its done
// callback from that goroutine.
type FS struct {
	root     string
	log      *zap.Logger
	released atomic.Int64

	mu     sync.Mutex // closed 與 wg.Add 必須一起判斷，避免與 Close 的 Wait 競爭
	closed bool
	wg     sync.WaitGroup
}

func NewFS(root string, log *zap.Logger) *FS {
	if log == nil {
		log = zap.NewNop()
	}
	return &FS{root: root, log: log.Named("fsloader")}
}

// PackagePath returns the descriptor path for a package name.
func (l *FS) PackagePath(name string) string {
	return filepath.Join(l.root, name+pkgfile.FileSuffix)
}

// AssetPath returns the payload path for an asset of a package.
func (l *FS) AssetPath(pkg, name, ext string) string {
	return filepath.Join(l.root, pkg+"_"+name+ext)
}

func (l *FS) LoadPackageBytes(name string, done func([]byte)) {
	l.spawn(func() {
		data, err := l.read(name + pkgfile.FileSuffix)
		if err != nil {
			l.log.Warn("read package", zap.String("package", name), zap.Error(err))
			done(nil)
			return
		}
		done(data)
	}, func() { done(nil) })
}

func (l *FS) LoadTexture(pkg, name, ext string, done func(*asset.Handle)) {
	l.loadAsset(asset.KindTexture, pkg, name, ext, done)
}

func (l *FS) LoadAudio(pkg, name, ext string, done func(*asset.Handle)) {
	l.loadAsset(asset.KindAudio, pkg, name, ext, done)
}

// ReleaseTexture drops a texture payload. Payloads are plain byte slices,
// so there is nothing to free beyond bookkeeping.
func (l *FS) ReleaseTexture(h *asset.Handle) { l.release(h) }
func (l *FS) ReleaseAudio(h *asset.Handle)   { l.release(h) }

// Released 回傳已歸還的資源數。
func (l *FS) Released() int64 { return l.released.Load() }

// Close 等待進行中的讀取結束，之後的請求立即以失敗完成。
// 可與請求並行呼叫。
func (l *FS) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *FS) loadAsset(kind asset.Kind, pkg, name, ext string, done func(*asset.Handle)) {
	l.spawn(func() {
		data, err := l.read(pkg + "_" + name + ext)
		if err != nil {
			l.log.Warn("read asset",
				zap.String("package", pkg),
				zap.String("asset", name+ext),
				zap.Stringer("kind", kind),
				zap.Error(err),
			)
			done(nil)
			return
		}
		done(asset.NewHandle(kind, name, data))
	}, func() { done(nil) })
}

func (l *FS) spawn(fn func(), onClosed func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		onClosed()
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		fn()
	}()
}

func (l *FS) read(file string) ([]byte, error) {
	// 拒絕跳出資源根目錄的路徑
	if !filepath.IsLocal(file) {
		return nil, fmt.Errorf("path %q escapes asset root", file)
	}
	return os.ReadFile(filepath.Join(l.root, file))
}

func (l *FS) release(h *asset.Handle) {
	if h == nil {
		return
	}
	l.released.Add(1)
	l.log.Debug("asset released", zap.Uint64("asset", h.ID()), zap.Stringer("kind", h.Kind()))
}
