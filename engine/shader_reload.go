package engine

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine/shader"
)

// shaderReloader watches the shader source files and flags the stages whose source changed.
// The frame loop drains the flags between frames; the watcher goroutine never touches the GPU.
type shaderReloader struct {
	watcher *fsnotify.Watcher
	paths   map[string][]shader.Stage

	vertexDirty atomic.Bool
	pixelDirty  atomic.Bool

	quitChannel chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup
}

// newShaderReloader starts watching the directories that hold the given shader files.
//
// Parameters:
//   - files: the shader file of each stage; both stages may share one file
//
// Returns:
//   - *shaderReloader: the running watcher
//   - error: error if a path cannot be resolved or watched
func newShaderReloader(files map[shader.Stage]string) (*shaderReloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create shader watcher: %w", err)
	}

	r := &shaderReloader{
		watcher:     watcher,
		paths:       make(map[string][]shader.Stage, len(files)),
		quitChannel: make(chan struct{}),
	}

	// Editors often replace files instead of writing in place, so the directory is watched, not the file.
	dirs := make(map[string]struct{})
	for stage, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to resolve shader path %s: %w", path, err)
		}
		r.paths[abs] = append(r.paths[abs], stage)
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	r.wg.Add(1)
	go r.handleEvents()
	return r, nil
}

// handleEvents runs until close, translating file events into dirty flags.
func (r *shaderReloader) handleEvents() {
	defer r.wg.Done()
	for {
		select {
		case <-r.quitChannel:
			return
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if stages, ok := r.paths[filepath.Clean(ev.Name)]; ok {
				for _, stage := range stages {
					r.mark(stage)
				}
			} else if filepath.Ext(ev.Name) == ".wgsl" {
				// Any other WGSL file next to the programs may be included by either of them.
				r.mark(shader.StageVertex)
				r.mark(shader.StagePixel)
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", "err", err)
		}
	}
}

func (r *shaderReloader) mark(stage shader.Stage) {
	switch stage {
	case shader.StageVertex:
		r.vertexDirty.Store(true)
	case shader.StagePixel:
		r.pixelDirty.Store(true)
	}
}

// drain returns the stages changed since the last call and clears their flags.
//
// Returns:
//   - []shader.Stage: the changed stages, vertex first
func (r *shaderReloader) drain() []shader.Stage {
	var stages []shader.Stage
	if r.vertexDirty.Swap(false) {
		stages = append(stages, shader.StageVertex)
	}
	if r.pixelDirty.Swap(false) {
		stages = append(stages, shader.StagePixel)
	}
	return stages
}

// close stops the watcher goroutine and releases the OS watch handles. Safe to call more than once.
func (r *shaderReloader) close() {
	r.quitOnce.Do(func() {
		close(r.quitChannel)
		r.watcher.Close()
		r.wg.Wait()
	})
}
