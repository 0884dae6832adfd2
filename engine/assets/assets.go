// Package assets indexes the asset directory, loads files into renderer
// objects and hot-reloads shaders when their source changes on disk.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/ember/engine/assets/loaders"
	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer"
)

// DefaultDebounce is how long a file must stay quiet before a change to it
// is reported. Editors often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
	Modified   time.Time
}

type AssetManager struct {
	root     string
	debounce time.Duration

	assets  map[string]AssetInfo
	loaders map[AssetType]Loader
	shaders *loaders.ShaderLoader
	// changed maps a path to the time of its latest write.
	changed map[string]time.Time

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		debounce: DefaultDebounce,
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[AssetType]Loader),
		shaders:  &loaders.ShaderLoader{},
		changed:  make(map[string]time.Time),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes assetsDir and starts watching it recursively.
func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	if err := am.addRecursive(root); err != nil {
		return err
	}
	am.started = true
	go am.start()

	am.registerLoader(AssetTypeShader, am.shaders)
	am.registerLoader(AssetTypeImage, &loaders.TextureLoader{})
	am.registerLoader(AssetTypeBitmapFont, &loaders.BitmapFontLoader{})
	am.registerLoader(AssetTypeSystemFont, &loaders.SystemFontLoader{})

	core.LogInfo("asset manager watching %s (%d assets)", root, am.Count())
	return nil
}

func (am *AssetManager) SetDebounce(d time.Duration) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.debounce = d
}

// addRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	return am.watchRecursive(name)
}

func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Count is the number of indexed assets.
func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Asset returns the index entry of a path relative to the asset root.
func (am *AssetManager) Asset(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	asset, ok := am.assets[am.resolve(name)]
	return asset, ok
}

func (am *AssetManager) resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(am.root, name)
}

// LoadAsset loads an indexed asset with the loader of its type. name is
// relative to the asset root. Must be called on the render thread.
func (am *AssetManager) LoadAsset(ctx *renderer.Context, name string) (interface{}, error) {
	path := am.resolve(name)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", name)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Load(ctx, path)
}

// Poll reloads every shader whose file settled since the last call. Only
// shaders already cached in ctx under the file's base name are touched; a
// failed reload keeps the previous program. Must be called on the render
// thread.
func (am *AssetManager) Poll(ctx *renderer.Context) []error {
	var errs []error
	for _, path := range am.settled(time.Now()) {
		reloaded, err := am.shaders.Reload(ctx, path)
		if err != nil {
			core.LogError("shader reload %s: %s", path, err)
			errs = append(errs, fmt.Errorf("reload %s: %w", path, err))
			continue
		}
		if reloaded {
			core.LogInfo("reloaded shader %s", loaders.ShaderName(path))
		}
	}
	return errs
}

// settled removes and returns the changed shader paths that have been
// quiet for the debounce interval.
func (am *AssetManager) settled(now time.Time) []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	var out []string
	for path, at := range am.changed {
		if now.Sub(at) < am.debounce {
			continue
		}
		delete(am.changed, path)
		out = append(out, path)
	}
	return out
}

// Shutdown stops the watcher goroutine.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()
	if !am.started {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name); err != nil {
						core.LogWarn("watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			// A removed path cannot be stat'ed; drop it from the index and
			// the watch list in case it was a directory.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds every directory under path to the watch list and
// indexes the files found along the way.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath, false)
		return nil
	})
}

// handleFileEvent indexes a created or modified file. Shader writes are
// queued for Poll when changed is set.
func (am *AssetManager) handleFileEvent(path string, changed bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return
	}
	now := time.Now()

	am.mutex.Lock()
	defer am.mutex.Unlock()
	asset := am.assets[path]
	asset.Path = path
	asset.Type = assetType
	asset.Modified = now
	am.assets[path] = asset
	if changed && assetType == AssetTypeShader {
		am.changed[path] = now
	}
}

func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
	delete(am.changed, path)
}
