package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/pica/engine/assets/loaders"
	"github.com/spaghettifunk/pica/engine/containers"
	"github.com/spaghettifunk/pica/engine/core"
	"github.com/spaghettifunk/pica/engine/renderer/metadata"
)

// maximum number of changed mesh files kept between two drains
const pendingMeshCapacity = 256

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// AssetManager indexes the assets directory, loads files through the
// registered loaders and, when watching, records mesh files that appear or
// change so the frame loop can pick them up.
type AssetManager struct {
	assetsDir string
	assets    map[string]AssetInfo
	loaders   map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	watching bool
	isClosed bool
	pending  *containers.RingQueue[string]
}

func NewAssetManager() (*AssetManager, error) {
	return &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[metadata.ResourceType]Loader),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		pending: containers.NewRingQueue[string](pendingMeshCapacity),
	}, nil
}

// Initialize indexes every file below assetsDir. When watch is set, new or
// modified files are tracked until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	abs, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.assetsDir = abs

	// Register loaders
	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypeMesh, &loaders.ModelLoader{})

	if watch {
		fsWatch, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = fsWatch
		am.watching = true
	}

	if err := am.watchRecursive(am.assetsDir, false); err != nil {
		return err
	}

	if am.watching {
		go am.start()
	}

	core.LogInfo("asset manager indexed %d files under %s (watching: %t)", len(am.assets), am.assetsDir, watch)
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	if am.watching {
		close(am.done)
		<-am.stopped
	}
	return nil
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Resolve turns a name relative to the assets directory into the indexed path.
func (am *AssetManager) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(am.assetsDir, name)
}

// LoadAsset loads an indexed asset using the loader registered for its type.
func (am *AssetManager) LoadAsset(name string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path := am.Resolve(name)

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if exists {
		// Update the loaded time
		asset.LastLoaded = time.Now()
		am.assets[path] = asset
	}
	am.mutex.Unlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", path)
	}
	if asset.Type != resourceType {
		return nil, fmt.Errorf("asset %s has type %d, requested %d", path, asset.Type, resourceType)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	return loader.Load(path, resourceType, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	path := am.Resolve(asset.FullPath)
	am.mutex.RLock()
	info, exists := am.assets[path]
	am.mutex.RUnlock()
	if !exists {
		return nil
	}
	if loader, ok := am.loaders[info.Type]; ok {
		return loader.Unload(asset)
	}
	return nil
}

// List returns the indexed paths of the given type, sorted.
func (am *AssetManager) List(resourceType metadata.ResourceType) []string {
	am.mutex.RLock()
	defer am.mutex.RUnlock()

	var out []string
	for path, info := range am.assets {
		if info.Type == resourceType {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// DrainChangedMeshes returns the mesh files created or written since the
// previous call, oldest first, without duplicates.
func (am *AssetManager) DrainChangedMeshes() []string {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	var out []string
	seen := make(map[string]bool)
	for !am.pending.IsEmpty() {
		path, err := am.pending.Dequeue()
		if err != nil {
			break
		}
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}
	return out
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
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError(e.Error())

		case <-am.done:
			if err := am.fsnotify.Close(); err != nil {
				core.LogWarn("failed to close asset watcher: %s", err)
			}
			return
		}
	}
}

// watchRecursive indexes all files under the given directory and, when
// watching, adds every directory to the watch list.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if !am.watching {
				return nil
			}
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath, false)
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string, changed bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}
	path = filepath.Clean(path)

	am.mutex.Lock()
	defer am.mutex.Unlock()

	am.assets[path] = AssetInfo{
		Path: path,
		Type: assetType,
	}
	if changed && assetType == metadata.ResourceTypeMesh {
		if err := am.pending.Enqueue(path); err != nil {
			if errors.Is(err, containers.ErrQueueFull) {
				core.LogWarn("too many pending mesh changes, dropping %s", path)
				return
			}
			core.LogError(err.Error())
		}
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".spv":
		return metadata.ResourceTypeShader
	case ".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".mesh":
		return metadata.ResourceTypeMesh
	default:
		return metadata.ResourceTypeNone
	}
}
