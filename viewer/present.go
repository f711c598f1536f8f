package viewer

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/grade"
)

// Presentation errors.
var (
	// ErrViewerClosed is returned when Present is called after Close.
	ErrViewerClosed = errors.New("viewer: viewer is closed")

	// ErrNoTextureCreator is returned when the draw context cannot create
	// textures.
	ErrNoTextureCreator = errors.New("viewer: draw context has no texture creator")

	// ErrInvalidTexture is returned when a created texture cannot be drawn.
	ErrInvalidTexture = errors.New("viewer: texture does not implement gpucontext.Texture")
)

// overlayMargin is the inset of the histogram overlay from the frame's
// bottom-left corner, in pixels.
const overlayMargin = 16

// textureDestroyer matches the Destroy method of gogpu textures.
type textureDestroyer interface {
	Destroy()
}

// Present renders one tick: it pulls the current frame from the renderer,
// uploads it, draws it at the origin, then draws the histogram overlay over
// the frame's bottom-left corner. The overlay pixmap is re-rasterized only
// when the engine has delivered a new histogram since the last tick.
//
// The dc parameter should be obtained from gogpu.Context.AsTextureDrawer().
func (v *Viewer) Present(dc gpucontext.TextureDrawer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewerClosed
	}

	frame, err := v.renderer.Frame()
	if err != nil {
		return err
	}

	// A continuous loop re-evaluates the frame every tick, so its texture
	// is always re-uploaded.
	v.frame.markDirty()
	if err := v.frame.present(dc, frame, 0, 0); err != nil {
		return err
	}

	if v.histDirty {
		v.view.Draw(v.hist)
		v.histDirty = false
		v.overlay.markDirty()
	}
	pm := v.view.Pixmap()
	y := float32(frame.Height() - pm.Height() - overlayMargin)
	if y < 0 {
		y = 0
	}
	return v.overlay.present(dc, pm, overlayMargin, y)
}

// texSlot owns one GPU texture fed from a pixmap. The texture is created
// lazily on first present and updated in place afterwards; when dimensions
// change, the previous texture is destroyed only after the replacing upload
// completes, since the upload waits for the GPU and in-flight command
// buffers may still reference the old descriptor entries.
type texSlot struct {
	texture any
	old     any
	width   int
	height  int
	dirty   bool
}

// markDirty records that the pixmap content changed since the last upload.
func (s *texSlot) markDirty() {
	s.dirty = true
}

// present uploads pm when needed and draws the slot's texture at (x, y).
func (s *texSlot) present(dc gpucontext.TextureDrawer, pm *grade.Pixmap, x, y float32) error {
	if pm.Width() != s.width || pm.Height() != s.height {
		if s.texture != nil {
			s.destroyOld()
			s.old = s.texture
			s.texture = nil
		}
		s.width = pm.Width()
		s.height = pm.Height()
		s.dirty = true
	}

	if s.texture == nil {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrNoTextureCreator
		}

		tex, err := creator.NewTextureFromRGBA(s.width, s.height, pm.Data())
		if err != nil {
			return fmt.Errorf("viewer: NewTextureFromRGBA failed: %w", err)
		}

		// Pixmap bytes are premultiplied alpha — mark the texture so gogpu
		// picks the BlendFactorOne pipeline.
		if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}
		s.texture = tex
		s.dirty = false

		// NewTextureFromRGBA waits for the GPU internally, so the retired
		// texture is no longer in flight and safe to destroy.
		s.destroyOld()
	} else if s.dirty {
		if updater, ok := s.texture.(gpucontext.TextureUpdater); ok {
			if err := updater.UpdateData(pm.Data()); err != nil {
				return fmt.Errorf("viewer: texture update failed: %w", err)
			}
		}
		s.dirty = false
	}

	gpuTex, ok := s.texture.(gpucontext.Texture)
	if !ok {
		return ErrInvalidTexture
	}
	return dc.DrawTexture(gpuTex, x, y)
}

// destroyOld destroys a retired texture, if one is pending.
func (s *texSlot) destroyOld() {
	if s.old == nil {
		return
	}
	if d, ok := s.old.(textureDestroyer); ok {
		d.Destroy()
	}
	s.old = nil
}

// destroy releases the slot's textures.
func (s *texSlot) destroy() {
	s.destroyOld()
	if s.texture == nil {
		return
	}
	if d, ok := s.texture.(textureDestroyer); ok {
		d.Destroy()
	}
	s.texture = nil
	s.width = 0
	s.height = 0
}
