package blueprint

import (
	"sync"
	"time"
)

// Session is the single-instance state for one loaded source file: the
// file itself (owned by the session once handed over), what is known about
// it, the render cache scoped to it, and the currently displayed artifact.
type Session struct {
	mu        sync.RWMutex
	file      SourceFile
	info      FileInfo
	cache     RenderCache
	displayed RenderedImage
	hasImage  bool
	loadedAt  time.Time
}

// NewSession creates a session around the given cache. A nil cache gets an
// in-memory one.
func NewSession(cache RenderCache) *Session {
	if cache == nil {
		cache = NewMemoryRenderCache()
	}
	return &Session{cache: cache}
}

// SetFile replaces the current source file and clears the render cache.
// File loads are the only cache invalidation; option changes never clear.
func (s *Session) SetFile(file SourceFile, info FileInfo, now time.Time) {
	s.mu.Lock()
	s.file = file
	s.info = info
	s.displayed = RenderedImage{}
	s.hasImage = false
	s.loadedAt = now
	s.cache.Clear()
	s.mu.Unlock()
}

// Reset drops the file, the displayed artifact, and every cached render.
func (s *Session) Reset() {
	s.SetFile(SourceFile{}, FileInfo{}, time.Time{})
}

// File returns the current source file.
func (s *Session) File() SourceFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file
}

// Info returns what is known about the current source file.
func (s *Session) Info() FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// IsPDF reports whether the loaded file is a PDF.
func (s *Session) IsPDF() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.IsPDF
}

// Cache returns the render cache bound to this session.
func (s *Session) Cache() RenderCache {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

// SetDisplayed records the artifact currently on the display.
func (s *Session) SetDisplayed(img RenderedImage) {
	s.mu.Lock()
	s.displayed = img
	s.hasImage = true
	s.mu.Unlock()
}

// Displayed returns the currently displayed artifact, if any.
func (s *Session) Displayed() (RenderedImage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayed, s.hasImage
}

// LoadedAt returns when the current file was loaded.
func (s *Session) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}
