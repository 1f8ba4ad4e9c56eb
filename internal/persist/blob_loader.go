package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/l1jgo/uiasset/internal/asset"
	"go.uber.org/zap"
)

type blobSource interface {
	Load(ctx context.Context, pkg, kind, name string) ([]byte, error)
}

// BlobLoader 從 ui_asset_blobs 表提供包描述與資源內容。
// 每個請求在自己的 goroutine 上執行有逾時的查詢；查無資料或查詢失敗時以 nil 完成。
type BlobLoader struct {
	src      blobSource
	timeout  time.Duration
	log      *zap.Logger
	released atomic.Int64

	mu     sync.Mutex // 保護 ctx 取消判斷與 wg.Add 的先後
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBlobLoader(src blobSource, timeout time.Duration, log *zap.Logger) *BlobLoader {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BlobLoader{
		src:     src,
		timeout: timeout,
		log:     log.Named("blobloader"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (l *BlobLoader) LoadPackageBytes(name string, done func([]byte)) {
	l.fetch(name, KindPackage, "", done)
}

func (l *BlobLoader) LoadTexture(pkg, name, ext string, done func(*asset.Handle)) {
	l.loadAsset(asset.KindTexture, pkg, name, ext, done)
}

func (l *BlobLoader) LoadAudio(pkg, name, ext string, done func(*asset.Handle)) {
	l.loadAsset(asset.KindAudio, pkg, name, ext, done)
}

func (l *BlobLoader) ReleaseTexture(h *asset.Handle) { l.release(h) }
func (l *BlobLoader) ReleaseAudio(h *asset.Handle)   { l.release(h) }

// Released 回傳已歸還的資源數。
func (l *BlobLoader) Released() int64 { return l.released.Load() }

// Close 取消尚未完成的查詢並等待其回呼結束。
// 可與請求並行呼叫。
func (l *BlobLoader) Close() {
	l.mu.Lock()
	l.cancel()
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *BlobLoader) loadAsset(kind asset.Kind, pkg, name, ext string, done func(*asset.Handle)) {
	l.fetch(pkg, kind.String(), name+ext, func(data []byte) {
		if data == nil {
			done(nil)
			return
		}
		done(asset.NewHandle(kind, name, data))
	})
}

func (l *BlobLoader) fetch(pkg, kind, name string, done func([]byte)) {
	l.mu.Lock()
	// 已關閉：同步以失敗完成，不再啟動查詢
	if l.ctx.Err() != nil {
		l.mu.Unlock()
		done(nil)
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
		defer cancel()

		data, err := l.src.Load(ctx, pkg, kind, name)
		if err != nil {
			l.log.Warn("blob query failed",
				zap.String("package", pkg),
				zap.String("kind", kind),
				zap.String("name", name),
				zap.Error(err),
			)
			done(nil)
			return
		}
		// 空內容與查無資料同樣視為失敗
		if len(data) == 0 {
			l.log.Warn("blob not found",
				zap.String("package", pkg),
				zap.String("kind", kind),
				zap.String("name", name),
			)
			done(nil)
			return
		}
		done(data)
	}()
}

func (l *BlobLoader) release(h *asset.Handle) {
	if h == nil {
		return
	}
	l.released.Add(1)
	l.log.Debug("asset released", zap.Uint64("asset", h.ID()), zap.Stringer("kind", h.Kind()))
}
