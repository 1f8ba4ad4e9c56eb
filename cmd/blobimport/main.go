// blobimport uploads a directory of package descriptors and their texture
// and audio payloads into the ui_asset_blobs table.
//
// Usage:
//
//	go run ./cmd/blobimport <assets dir>
//
// The database comes from the [database] section of the host config.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/l1jgo/uiasset/internal/asset"
	"github.com/l1jgo/uiasset/internal/config"
	"github.com/l1jgo/uiasset/internal/persist"
	"github.com/l1jgo/uiasset/internal/pkgfile"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: blobimport <assets dir>")
		os.Exit(1)
	}
	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	blobs, err := collectBlobs(dir, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if _, err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	repo := persist.NewBlobRepo(db)
	for _, b := range blobs {
		if err := repo.Save(ctx, b); err != nil {
			return err
		}
	}
	fmt.Printf("Imported %d blobs from %s\n", len(blobs), dir)
	return nil
}

// collectBlobs reads every descriptor under dir plus the texture and audio
// items it declares. Items whose payload file is missing are skipped.
func collectBlobs(dir string, log *zap.Logger) ([]persist.Blob, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+pkgfile.FileSuffix))
	if err != nil {
		return nil, err
	}

	var blobs []persist.Blob
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		desc, err := pkgfile.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		pkg := desc.Name
		if pkg == "" {
			pkg = strings.TrimSuffix(filepath.Base(path), pkgfile.FileSuffix)
		}
		blobs = append(blobs, persist.Blob{
			Package: pkg,
			Kind:    persist.KindPackage,
			Data:    raw,
			Digest:  pkgfile.Digest(raw),
		})

		for _, item := range desc.Items {
			kind, ok := itemKind(item.Type)
			if !ok {
				continue
			}
			file := pkg + "_" + item.Name + item.File
			data, err := os.ReadFile(filepath.Join(dir, file))
			if err != nil {
				log.Warn("skip item", zap.String("package", pkg), zap.String("file", file), zap.Error(err))
				continue
			}
			blobs = append(blobs, persist.Blob{
				Package: pkg,
				Kind:    kind.String(),
				Name:    item.Name + item.File,
				Data:    data,
				Digest:  pkgfile.Digest(data),
			})
		}
	}
	return blobs, nil
}

func itemKind(typ string) (asset.Kind, bool) {
	for _, k := range asset.Kinds {
		if k.String() == typ {
			return k, true
		}
	}
	return 0, false
}
