package wlcommit

import "sync"

// Texture is the backend-imported representation of a Buffer. The real
// GPU texture/framebuffer objects live behind the Backend interface
// (C9); here it is a ref-counted handle keyed by buffer identity.
type Texture struct {
	Buffer *Buffer

	// Framebuffer is non-nil only when the buffer was dma-buf-backed and
	// the active backend supports direct scan-out (§4.1 point 1).
	Framebuffer any

	refs int
}

// TextureCache maps buffer identity to its imported Texture, avoiding
// re-importing the same client buffer every commit. Per §9's design
// note, this is modelled as an arena keyed by identity with refcounts
// dropped on either the last Commit or the last buffer reference dying;
// the cache never holds a strong reference back into a Commit, avoiding
// the cyclic ownership the original ties together with destroy-listeners.
type TextureCache struct {
	mu      sync.Mutex
	entries map[*Buffer]*Texture

	// destroyFramebuffer is invoked when a cache entry's last reference
	// drops and it owned a backend framebuffer, so the active backend can
	// free GPU-side resources.
	destroyFramebuffer func(fb any)
}

// NewTextureCache creates an empty cache. destroyFB may be nil if the
// backend never imports dma-bufs (e.g. headless).
func NewTextureCache(destroyFB func(fb any)) *TextureCache {
	return &TextureCache{
		entries:            make(map[*Buffer]*Texture),
		destroyFramebuffer: destroyFB,
	}
}

// Acquire returns the Texture for buf, creating it via makeTexture if
// this is the first reference, and increments its refcount. Stable
// iteration: existing *Texture pointers are never invalidated by later
// Acquire calls for other buffers.
func (tc *TextureCache) Acquire(buf *Buffer, makeTexture func(*Buffer) *Texture) *Texture {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tex, ok := tc.entries[buf]; ok {
		tex.refs++
		return tex
	}
	tex := makeTexture(buf)
	tc.entries[buf] = tex
	tex.refs = 1
	return tex
}

// Release drops one reference to tex's cache entry, tearing down the
// framebuffer mapping and removing the entry once the count reaches
// zero.
func (tc *TextureCache) Release(tex *Texture) {
	if tex == nil {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tex.refs--
	if tex.refs > 0 {
		return
	}
	delete(tc.entries, tex.Buffer)
	if tex.Framebuffer != nil && tc.destroyFramebuffer != nil {
		tc.destroyFramebuffer(tex.Framebuffer)
	}
}

// Len reports the number of distinct buffers currently cached (test hook).
func (tc *TextureCache) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.entries)
}
