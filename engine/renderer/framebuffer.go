package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

// ColorAttachmentInfo fixes the storage format of one colour attachment.
type ColorAttachmentInfo struct {
	Internal gpu.PixelFormat
	Format   gpu.PixelFormat
	Type     gpu.PixelType
}

// DefaultColorAttachment is an RGBA8 display target.
var DefaultColorAttachment = ColorAttachmentInfo{Internal: gpu.RGBA8, Format: gpu.RGBA, Type: gpu.UnsignedBytePixel}

// PickingAttachment stores one uint32 object index per pixel.
var PickingAttachment = ColorAttachmentInfo{Internal: gpu.R32UI, Format: gpu.RedInteger, Type: gpu.UnsignedIntPixel}

type FramebufferInfo struct {
	HasDepth         bool
	HasStencil       bool
	ColorAttachments []ColorAttachmentInfo
	// AutoResize makes Context.Resize resize the framebuffer with the window.
	AutoResize bool
	// Width and Height default to the context size when zero.
	Width  int32
	Height int32
}

// DefaultFramebufferInfo has one RGBA8 colour attachment and a depth
// attachment, and follows the window size.
func DefaultFramebufferInfo() FramebufferInfo {
	return FramebufferInfo{
		HasDepth:         true,
		ColorAttachments: []ColorAttachmentInfo{DefaultColorAttachment},
		AutoResize:       true,
	}
}

func (i *FramebufferInfo) AddColorAttachment(info ColorAttachmentInfo) {
	i.ColorAttachments = append(i.ColorAttachments, info)
}

// Framebuffer owns its colour attachments, followed by an optional depth or
// depth/stencil attachment. The set and order of attachments never change;
// Resize reallocates their storage in place.
type Framebuffer struct {
	Object
	info    FramebufferInfo
	targets []*Texture
	width   int32
	height  int32
}

// NewFramebuffer creates every attachment at the requested size and checks
// completeness. An incomplete framebuffer is released and
// core.ErrIncompleteFramebuffer returned.
func NewFramebuffer(ctx *Context, info FramebufferInfo, label string) (*Framebuffer, error) {
	width, height := info.Width, info.Height
	if width == 0 && height == 0 {
		width, height = ctx.Size()
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("framebuffer %q size %dx%d: %w", label, width, height, core.ErrIncompleteFramebuffer)
	}

	dev := ctx.device
	fb := &Framebuffer{info: info, width: width, height: height}
	fb.info.ColorAttachments = append([]ColorAttachmentInfo(nil), info.ColorAttachments...)
	fb.init(ctx, gpu.ObjectFramebuffer, dev.CreateFramebuffer(), fb, label)
	dev.BindFramebuffer(gpu.Framebuffer, fb.id)

	var drawBuffers []gpu.Attachment
	for i, ci := range fb.info.ColorAttachments {
		spec := TextureSpec{
			Width: width, Height: height,
			Internal: ci.Internal, Format: ci.Format, Type: ci.Type,
			Filter: gpu.Nearest, Wrap: gpu.ClampToEdge,
		}
		tex, err := NewTexture(ctx, spec, nil, fmt.Sprintf("%s.color%d", fb.label, i))
		if err != nil {
			return nil, fb.abort(err)
		}
		dev.FramebufferTexture2D(gpu.Framebuffer, gpu.ColorAttachment(i), tex.id)
		fb.targets = append(fb.targets, tex)
		drawBuffers = append(drawBuffers, gpu.ColorAttachment(i))
	}

	if info.HasDepth {
		spec := TextureSpec{Width: width, Height: height, Filter: gpu.Nearest, Wrap: gpu.ClampToEdge}
		attachment := gpu.DepthAttachment
		if info.HasStencil {
			spec.Internal, spec.Format, spec.Type = gpu.Depth24Stencil8, gpu.DepthStencil, gpu.UnsignedInt248Pixel
			attachment = gpu.DepthStencilAttachment
		} else {
			spec.Internal, spec.Format, spec.Type = gpu.DepthComponent, gpu.DepthComponent, gpu.FloatPixel
		}
		tex, err := NewTexture(ctx, spec, nil, fb.label+".depth")
		if err != nil {
			return nil, fb.abort(err)
		}
		dev.FramebufferTexture2D(gpu.Framebuffer, attachment, tex.id)
		fb.targets = append(fb.targets, tex)
	}

	if len(drawBuffers) > 0 {
		dev.DrawBuffers(drawBuffers)
	}

	status := dev.CheckFramebufferStatus(gpu.Framebuffer)
	dev.BindFramebuffer(gpu.Framebuffer, 0)
	if status != gpu.FramebufferComplete {
		return nil, fb.abort(fmt.Errorf("framebuffer %q (status %d): %w", fb.label, status, core.ErrIncompleteFramebuffer))
	}
	core.LogDebug("framebuffer %q created %dx%d with %d attachments", fb.label, width, height, len(fb.targets))
	return fb, nil
}

// abort releases a partially built framebuffer and passes err through.
func (fb *Framebuffer) abort(err error) error {
	if derr := fb.Destroy(); derr != nil {
		return errors.Join(err, derr)
	}
	return err
}

func (fb *Framebuffer) Info() FramebufferInfo {
	return fb.info
}

func (fb *Framebuffer) Size() (int32, int32) {
	return fb.width, fb.height
}

func (fb *Framebuffer) HasDepth() bool {
	return fb.info.HasDepth
}

func (fb *Framebuffer) HasStencil() bool {
	return fb.info.HasStencil
}

// TargetTexture returns the attachment texture at index i. Colour
// attachments come first, the depth attachment last.
func (fb *Framebuffer) TargetTexture(i int) (*Texture, error) {
	if err := fb.check(); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(fb.targets) {
		return nil, fmt.Errorf("framebuffer %q attachment %d of %d: %w", fb.label, i, len(fb.targets), core.ErrOutOfBounds)
	}
	return fb.targets[i], nil
}

func (fb *Framebuffer) Targets() int {
	return len(fb.targets)
}

func (fb *Framebuffer) Bind(target gpu.FramebufferTarget) {
	if err := fb.check(); err != nil {
		core.LogError("bind: %s", err)
		return
	}
	fb.ctx.device.BindFramebuffer(target, fb.id)
}

// UnbindFramebuffer binds the default framebuffer to target.
func UnbindFramebuffer(ctx *Context, target gpu.FramebufferTarget) {
	ctx.device.BindFramebuffer(target, 0)
}

// Resize reallocates every attachment at the new size. Previous contents
// are discarded. Attachments are checked before any is touched, so a
// failed resize leaves all of them at the old size.
func (fb *Framebuffer) Resize(width, height int32) error {
	if err := fb.check(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("framebuffer %q resize to %dx%d: %w", fb.label, width, height, core.ErrIncompleteFramebuffer)
	}
	for i, tex := range fb.targets {
		if err := tex.check(); err != nil {
			return fmt.Errorf("framebuffer %q attachment %d: %w", fb.label, i, err)
		}
	}
	fb.width, fb.height = width, height
	var errs []error
	for _, tex := range fb.targets {
		errs = append(errs, tex.Resize(width, height))
	}
	return errors.Join(errs...)
}

// ReadPixel reads one pixel of colour attachment 0 into a T. T must be at
// least as large as one pixel of format/kind, e.g. uint32 for
// RedInteger/UnsignedInt or [4]uint8 for RGBA/UnsignedByte. The call stalls
// until the device returns the data.
func ReadPixel[T any](fb *Framebuffer, x, y int32, format gpu.PixelFormat, kind gpu.PixelType) (T, error) {
	var pixel T
	if err := fb.check(); err != nil {
		return pixel, err
	}
	if len(fb.info.ColorAttachments) == 0 {
		return pixel, fmt.Errorf("framebuffer %q has no colour attachment: %w", fb.label, core.ErrOutOfBounds)
	}
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return pixel, fmt.Errorf("framebuffer %q read (%d,%d) outside %dx%d: %w", fb.label, x, y, fb.width, fb.height, core.ErrOutOfBounds)
	}
	if need := gpu.PixelSize(format, kind); int(unsafe.Sizeof(pixel)) < need {
		return pixel, fmt.Errorf("framebuffer %q: %d byte result for %d byte pixel: %w", fb.label, unsafe.Sizeof(pixel), need, core.ErrOutOfBounds)
	}

	dev := fb.ctx.device
	dev.BindFramebuffer(gpu.ReadFramebuffer, fb.id)
	dev.ReadBuffer(gpu.ColorAttachment0)
	dst := []T{pixel}
	dev.ReadPixels(x, y, 1, 1, format, kind, asBytes(dst))
	dev.ReadBuffer(gpu.NoAttachment)
	dev.BindFramebuffer(gpu.ReadFramebuffer, 0)
	return dst[0], nil
}

// Destroy deletes the framebuffer and every attachment texture.
func (fb *Framebuffer) Destroy() error {
	if err := fb.release(); err != nil {
		return err
	}
	fb.ctx.device.DeleteFramebuffer(fb.id)
	for _, tex := range fb.targets {
		// attachments may already be gone through Context.DestroyAll
		if err := tex.Destroy(); err != nil && !errors.Is(err, core.ErrDestroyed) {
			return err
		}
	}
	return nil
}
