// Package headless is an in-memory gpu.Device. It keeps buffer bytes,
// texture storage and framebuffer attachments in Go memory, records draw
// calls and uniform writes, and supports clears and pixel readback. It does
// not rasterize; tests that need pixel content write it with SetPixel.
package headless

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

const TextureUnits = 16

type DrawCall struct {
	Mode        gpu.Primitive
	Count       int32
	Kind        gpu.ScalarType
	Offset      int
	Program     uint32
	VertexArray uint32
	Framebuffer uint32
	Textures    [TextureUnits]uint32
	// Indices holds the first Count indices of the bound element buffer.
	Indices []uint32
}

type VertexAttrib struct {
	Components int32
	Kind       gpu.ScalarType
	Normalized bool
	Integer    bool
	Stride     int32
	Offset     int
	Buffer     uint32
	Enabled    bool
}

type buffer struct {
	data  []byte
	usage gpu.UsageHint
}

type vertexArray struct {
	attribs       map[uint32]*VertexAttrib
	elementBuffer uint32
}

type texture struct {
	width, height int32
	internal      gpu.PixelFormat
	pixels        []byte
	filter        gpu.TextureFilter
	wrap          gpu.TextureWrap
}

type framebuffer struct {
	attachments map[gpu.Attachment]uint32
	drawBuffers []gpu.Attachment
	readBuffer  gpu.Attachment
}

type shader struct {
	stage    gpu.ShaderStage
	uniforms []gpu.UniformInfo
}

type program struct {
	uniforms []gpu.UniformInfo
	values   map[int32]interface{}
}

type Device struct {
	nextID uint32

	buffers      map[uint32]*buffer
	vertexArrays map[uint32]*vertexArray
	textures     map[uint32]*texture
	framebuffers map[uint32]*framebuffer
	shaders      map[uint32]*shader
	programs     map[uint32]*program
	labels       map[gpu.ObjectKind]map[uint32]string

	arrayBuffer   uint32
	elementBuffer uint32
	vertexArray   uint32
	activeUnit    uint32
	units         [TextureUnits]uint32
	readFBO       uint32
	drawFBO       uint32
	program       uint32
	capabilities  map[gpu.Capability]bool

	surface    *texture
	viewport   [4]int32
	clearColor [4]float32

	draws  []DrawCall
	clears []gpu.ClearMask
	errors []string
}

// New returns a device whose default framebuffer is width x height RGBA8.
func New(width, height int32) *Device {
	d := &Device{
		buffers:      make(map[uint32]*buffer),
		vertexArrays: make(map[uint32]*vertexArray),
		textures:     make(map[uint32]*texture),
		framebuffers: make(map[uint32]*framebuffer),
		shaders:      make(map[uint32]*shader),
		programs:     make(map[uint32]*program),
		labels:       make(map[gpu.ObjectKind]map[uint32]string),
		capabilities: make(map[gpu.Capability]bool),
	}
	d.ResizeSurface(width, height)
	return d
}

// ResizeSurface reallocates the default framebuffer, as a window resize would.
func (d *Device) ResizeSurface(width, height int32) {
	d.surface = &texture{internal: gpu.RGBA8}
	d.surface.allocate(width, height)
}

func (d *Device) newID() uint32 {
	d.nextID++
	return d.nextID
}

func (d *Device) errorf(format string, args ...interface{}) {
	d.errors = append(d.errors, fmt.Sprintf(format, args...))
}

func (d *Device) CreateBuffer() uint32 {
	id := d.newID()
	d.buffers[id] = &buffer{}
	return id
}

func (d *Device) DeleteBuffer(id uint32) {
	if _, ok := d.buffers[id]; !ok {
		d.errorf("delete of unknown buffer %d", id)
		return
	}
	delete(d.buffers, id)
	delete(d.labels[gpu.ObjectBuffer], id)
	if d.arrayBuffer == id {
		d.arrayBuffer = 0
	}
	if d.elementBuffer == id {
		d.elementBuffer = 0
	}
}

func (d *Device) BindBuffer(target gpu.BufferTarget, id uint32) {
	if id != 0 {
		if _, ok := d.buffers[id]; !ok {
			d.errorf("bind of unknown buffer %d", id)
			return
		}
	}
	if target == gpu.ElementArrayBuffer {
		d.elementBuffer = id
		if va, ok := d.vertexArrays[d.vertexArray]; ok {
			va.elementBuffer = id
		}
		return
	}
	d.arrayBuffer = id
}

func (d *Device) boundBuffer(target gpu.BufferTarget) *buffer {
	id := d.arrayBuffer
	if target == gpu.ElementArrayBuffer {
		id = d.elementBuffer
	}
	return d.buffers[id]
}

func (d *Device) BufferData(target gpu.BufferTarget, size int, data []byte, usage gpu.UsageHint) {
	b := d.boundBuffer(target)
	if b == nil {
		d.errorf("buffer data with no buffer bound")
		return
	}
	b.data = make([]byte, size)
	copy(b.data, data)
	b.usage = usage
}

func (d *Device) BufferSubData(target gpu.BufferTarget, offset int, data []byte) {
	b := d.boundBuffer(target)
	if b == nil {
		d.errorf("buffer sub data with no buffer bound")
		return
	}
	if offset < 0 || offset+len(data) > len(b.data) {
		d.errorf("buffer sub data [%d:%d] outside allocation of %d bytes", offset, offset+len(data), len(b.data))
		return
	}
	copy(b.data[offset:], data)
}

func (d *Device) CreateVertexArray() uint32 {
	id := d.newID()
	d.vertexArrays[id] = &vertexArray{attribs: make(map[uint32]*VertexAttrib)}
	return id
}

func (d *Device) DeleteVertexArray(id uint32) {
	if _, ok := d.vertexArrays[id]; !ok {
		d.errorf("delete of unknown vertex array %d", id)
		return
	}
	delete(d.vertexArrays, id)
	delete(d.labels[gpu.ObjectVertexArray], id)
	if d.vertexArray == id {
		d.vertexArray = 0
	}
}

func (d *Device) BindVertexArray(id uint32) {
	if id == 0 {
		d.vertexArray = 0
		d.elementBuffer = 0
		return
	}
	va, ok := d.vertexArrays[id]
	if !ok {
		d.errorf("bind of unknown vertex array %d", id)
		return
	}
	d.vertexArray = id
	d.elementBuffer = va.elementBuffer
}

func (d *Device) attrib(index uint32) *VertexAttrib {
	va, ok := d.vertexArrays[d.vertexArray]
	if !ok {
		d.errorf("vertex attribute %d set with no vertex array bound", index)
		return nil
	}
	a, ok := va.attribs[index]
	if !ok {
		a = &VertexAttrib{}
		va.attribs[index] = a
	}
	return a
}

func (d *Device) EnableVertexAttribArray(index uint32) {
	if a := d.attrib(index); a != nil {
		a.Enabled = true
	}
}

func (d *Device) VertexAttribPointer(index uint32, components int32, kind gpu.ScalarType, normalized bool, stride int32, offset int) {
	if a := d.attrib(index); a != nil {
		a.Components, a.Kind, a.Normalized, a.Integer = components, kind, normalized, false
		a.Stride, a.Offset, a.Buffer = stride, offset, d.arrayBuffer
	}
}

func (d *Device) VertexAttribIPointer(index uint32, components int32, kind gpu.ScalarType, stride int32, offset int) {
	if a := d.attrib(index); a != nil {
		a.Components, a.Kind, a.Normalized, a.Integer = components, kind, false, true
		a.Stride, a.Offset, a.Buffer = stride, offset, d.arrayBuffer
	}
}

func (d *Device) CreateTexture() uint32 {
	id := d.newID()
	d.textures[id] = &texture{}
	return id
}

func (d *Device) DeleteTexture(id uint32) {
	if _, ok := d.textures[id]; !ok {
		d.errorf("delete of unknown texture %d", id)
		return
	}
	delete(d.textures, id)
	delete(d.labels[gpu.ObjectTexture], id)
	for i := range d.units {
		if d.units[i] == id {
			d.units[i] = 0
		}
	}
}

func (d *Device) ActiveTexture(unit uint32) {
	if unit >= TextureUnits {
		d.errorf("texture unit %d out of range", unit)
		return
	}
	d.activeUnit = unit
}

func (d *Device) BindTexture(id uint32) {
	if id != 0 {
		if _, ok := d.textures[id]; !ok {
			d.errorf("bind of unknown texture %d", id)
			return
		}
	}
	d.units[d.activeUnit] = id
}

func (d *Device) boundTexture() *texture {
	return d.textures[d.units[d.activeUnit]]
}

func (d *Device) TexImage2D(internal gpu.PixelFormat, width, height int32, format gpu.PixelFormat, kind gpu.PixelType, pixels []byte) {
	t := d.boundTexture()
	if t == nil {
		d.errorf("tex image with no texture bound")
		return
	}
	t.internal = internal
	t.allocate(width, height)
	if pixels != nil {
		if PixelSize(internal) != gpu.PixelSize(format, kind) {
			d.errorf("tex image upload format does not match internal format")
			return
		}
		copy(t.pixels, pixels)
	}
}

func (d *Device) TexParameters(filter gpu.TextureFilter, wrap gpu.TextureWrap) {
	if t := d.boundTexture(); t != nil {
		t.filter, t.wrap = filter, wrap
	}
}

func (d *Device) CreateFramebuffer() uint32 {
	id := d.newID()
	d.framebuffers[id] = &framebuffer{
		attachments: make(map[gpu.Attachment]uint32),
		drawBuffers: []gpu.Attachment{gpu.ColorAttachment0},
		readBuffer:  gpu.ColorAttachment0,
	}
	return id
}

func (d *Device) DeleteFramebuffer(id uint32) {
	if _, ok := d.framebuffers[id]; !ok {
		d.errorf("delete of unknown framebuffer %d", id)
		return
	}
	delete(d.framebuffers, id)
	delete(d.labels[gpu.ObjectFramebuffer], id)
	if d.readFBO == id {
		d.readFBO = 0
	}
	if d.drawFBO == id {
		d.drawFBO = 0
	}
}

func (d *Device) BindFramebuffer(target gpu.FramebufferTarget, id uint32) {
	if id != 0 {
		if _, ok := d.framebuffers[id]; !ok {
			d.errorf("bind of unknown framebuffer %d", id)
			return
		}
	}
	switch target {
	case gpu.ReadFramebuffer:
		d.readFBO = id
	case gpu.DrawFramebuffer:
		d.drawFBO = id
	default:
		d.readFBO, d.drawFBO = id, id
	}
}

func (d *Device) boundFramebuffer(target gpu.FramebufferTarget) (uint32, *framebuffer) {
	id := d.drawFBO
	if target == gpu.ReadFramebuffer {
		id = d.readFBO
	}
	return id, d.framebuffers[id]
}

func (d *Device) FramebufferTexture2D(target gpu.FramebufferTarget, attachment gpu.Attachment, tex uint32) {
	_, fb := d.boundFramebuffer(target)
	if fb == nil {
		d.errorf("attach to default framebuffer")
		return
	}
	if tex == 0 {
		delete(fb.attachments, attachment)
		return
	}
	fb.attachments[attachment] = tex
}

func (d *Device) DrawBuffers(attachments []gpu.Attachment) {
	_, fb := d.boundFramebuffer(gpu.DrawFramebuffer)
	if fb == nil {
		d.errorf("draw buffers on default framebuffer")
		return
	}
	fb.drawBuffers = append([]gpu.Attachment(nil), attachments...)
}

func (d *Device) CheckFramebufferStatus(target gpu.FramebufferTarget) gpu.FramebufferStatus {
	id, fb := d.boundFramebuffer(target)
	if id == 0 {
		return gpu.FramebufferComplete
	}
	if fb == nil {
		return gpu.FramebufferUndefined
	}
	if len(fb.attachments) == 0 {
		return gpu.FramebufferIncompleteMissingAttachment
	}
	var w, h int32 = -1, -1
	for _, texID := range fb.attachments {
		t, ok := d.textures[texID]
		if !ok || t.width == 0 || t.height == 0 {
			return gpu.FramebufferIncompleteAttachment
		}
		if w >= 0 && (t.width != w || t.height != h) {
			return gpu.FramebufferIncompleteAttachment
		}
		w, h = t.width, t.height
	}
	return gpu.FramebufferComplete
}

func (d *Device) ReadBuffer(attachment gpu.Attachment) {
	_, fb := d.boundFramebuffer(gpu.ReadFramebuffer)
	if fb == nil {
		return
	}
	fb.readBuffer = attachment
}

func (d *Device) ReadPixels(x, y, width, height int32, format gpu.PixelFormat, kind gpu.PixelType, dst []byte) {
	var src *texture
	id, fb := d.boundFramebuffer(gpu.ReadFramebuffer)
	if id == 0 {
		src = d.surface
	} else if fb != nil {
		if fb.readBuffer == gpu.NoAttachment {
			d.errorf("read pixels with no read buffer selected")
			return
		}
		src = d.textures[fb.attachments[fb.readBuffer]]
	}
	if src == nil {
		d.errorf("read pixels from missing attachment")
		return
	}
	if x < 0 || y < 0 || x+width > src.width || y+height > src.height {
		d.errorf("read pixels (%d,%d %dx%d) outside %dx%d", x, y, width, height, src.width, src.height)
		return
	}
	out := gpu.PixelSize(format, kind)
	in := PixelSize(src.internal)
	n := min(out, in)
	for row := int32(0); row < height; row++ {
		for col := int32(0); col < width; col++ {
			si := int((y+row)*src.width+(x+col)) * in
			di := int(row*width+col) * out
			if di+n > len(dst) {
				return
			}
			copy(dst[di:di+n], src.pixels[si:si+n])
		}
	}
}

var uniformDecl = regexp.MustCompile(`(?m)^\s*uniform\s+\w+\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)

func (d *Device) CompileShader(stage gpu.ShaderStage, source string) (uint32, error) {
	if strings.TrimSpace(source) == "" {
		return 0, fmt.Errorf("%s stage: empty source", stage)
	}
	if i := strings.Index(source, "#error"); i >= 0 {
		line := strings.Count(source[:i], "\n") + 1
		return 0, fmt.Errorf("%s stage: 0:%d: #error directive", stage, line)
	}

	s := &shader{stage: stage}
	for _, m := range uniformDecl.FindAllStringSubmatch(source, -1) {
		info := gpu.UniformInfo{Name: m[1], Size: 1}
		if m[2] != "" {
			n, _ := strconv.Atoi(m[2])
			info.Name += "[0]"
			info.Size = int32(n)
		}
		s.uniforms = append(s.uniforms, info)
	}
	id := d.newID()
	d.shaders[id] = s
	return id, nil
}

func (d *Device) DeleteShader(id uint32) {
	delete(d.shaders, id)
}

func (d *Device) LinkProgram(shaders ...uint32) (uint32, error) {
	stages := map[gpu.ShaderStage]bool{}
	seen := map[string]bool{}
	p := &program{values: make(map[int32]interface{})}
	var location int32
	for _, id := range shaders {
		s, ok := d.shaders[id]
		if !ok {
			return 0, fmt.Errorf("unknown shader object %d", id)
		}
		stages[s.stage] = true
		for _, u := range s.uniforms {
			if seen[u.Name] {
				continue
			}
			seen[u.Name] = true
			u.Location = location
			location += u.Size
			p.uniforms = append(p.uniforms, u)
		}
	}
	if !stages[gpu.VertexStage] || !stages[gpu.FragmentStage] {
		return 0, fmt.Errorf("program needs a vertex and a fragment stage")
	}
	id := d.newID()
	d.programs[id] = p
	return id, nil
}

func (d *Device) DeleteProgram(id uint32) {
	if _, ok := d.programs[id]; !ok {
		d.errorf("delete of unknown program %d", id)
		return
	}
	delete(d.programs, id)
	delete(d.labels[gpu.ObjectProgram], id)
	if d.program == id {
		d.program = 0
	}
}

func (d *Device) UseProgram(id uint32) {
	if id != 0 {
		if _, ok := d.programs[id]; !ok {
			d.errorf("use of unknown program %d", id)
			return
		}
	}
	d.program = id
}

func (d *Device) ActiveUniforms(id uint32) []gpu.UniformInfo {
	p, ok := d.programs[id]
	if !ok {
		return nil
	}
	return append([]gpu.UniformInfo(nil), p.uniforms...)
}

func (d *Device) setUniform(location int32, v interface{}) {
	p, ok := d.programs[d.program]
	if !ok {
		d.errorf("uniform write with no program in use")
		return
	}
	if location < 0 {
		return
	}
	p.values[location] = v
}

func (d *Device) Uniform1i(location int32, v int32) { d.setUniform(location, v) }

func (d *Device) Uniform1iv(location int32, v []int32) {
	d.setUniform(location, append([]int32(nil), v...))
}

func (d *Device) Uniform1f(location int32, v float32)          { d.setUniform(location, v) }
func (d *Device) Uniform2f(location int32, v mgl32.Vec2)       { d.setUniform(location, v) }
func (d *Device) Uniform3f(location int32, v mgl32.Vec3)       { d.setUniform(location, v) }
func (d *Device) Uniform4f(location int32, v mgl32.Vec4)       { d.setUniform(location, v) }
func (d *Device) UniformMatrix4f(location int32, v mgl32.Mat4) { d.setUniform(location, v) }

func (d *Device) Viewport(x, y, width, height int32) {
	d.viewport = [4]int32{x, y, width, height}
}

func (d *Device) ClearColor(r, g, b, a float32) {
	d.clearColor = [4]float32{r, g, b, a}
}

func (d *Device) Clear(mask gpu.ClearMask) {
	d.clears = append(d.clears, mask)
	if mask&gpu.ClearColor == 0 {
		return
	}
	if d.drawFBO == 0 {
		d.surface.fill(d.clearColor)
		return
	}
	fb := d.framebuffers[d.drawFBO]
	for _, a := range fb.drawBuffers {
		if t, ok := d.textures[fb.attachments[a]]; ok {
			t.fill(d.clearColor)
		}
	}
}

func (d *Device) Enable(capability gpu.Capability)  { d.capabilities[capability] = true }
func (d *Device) Disable(capability gpu.Capability) { d.capabilities[capability] = false }

func (d *Device) DrawElements(mode gpu.Primitive, count int32, kind gpu.ScalarType, offset int) {
	if d.program == 0 {
		d.errorf("draw with no program in use")
	}
	if d.vertexArray == 0 {
		d.errorf("draw with no vertex array bound")
	}
	call := DrawCall{
		Mode:        mode,
		Count:       count,
		Kind:        kind,
		Offset:      offset,
		Program:     d.program,
		VertexArray: d.vertexArray,
		Framebuffer: d.drawFBO,
		Textures:    d.units,
	}
	if b, ok := d.buffers[d.elementBuffer]; ok && kind == gpu.UnsignedInt {
		for i := 0; i < int(count); i++ {
			at := offset + i*4
			if at+4 > len(b.data) {
				d.errorf("draw reads index %d past element buffer of %d bytes", i, len(b.data))
				break
			}
			call.Indices = append(call.Indices, le32(b.data[at:]))
		}
	}
	d.draws = append(d.draws, call)
}

func (d *Device) Label(kind gpu.ObjectKind, id uint32, label string) {
	if label == "" {
		return
	}
	if d.labels[kind] == nil {
		d.labels[kind] = make(map[uint32]string)
	}
	d.labels[kind][id] = label
}

// Inspection helpers used by tests.

func (d *Device) DrawCalls() []DrawCall { return d.draws }

func (d *Device) ResetDrawCalls() { d.draws = nil }

func (d *Device) Clears() []gpu.ClearMask { return d.clears }

// Errors returns every misuse the device detected, in order.
func (d *Device) Errors() []string { return d.errors }

func (d *Device) ViewportRect() [4]int32 { return d.viewport }

func (d *Device) BoundFramebuffer(target gpu.FramebufferTarget) uint32 {
	id, _ := d.boundFramebuffer(target)
	return id
}

func (d *Device) CurrentProgram() uint32 { return d.program }

func (d *Device) CurrentVertexArray() uint32 { return d.vertexArray }

func (d *Device) IsEnabled(c gpu.Capability) bool { return d.capabilities[c] }

func (d *Device) LabelOf(kind gpu.ObjectKind, id uint32) string { return d.labels[kind][id] }

// Live counts undeleted objects of a kind.
func (d *Device) Live(kind gpu.ObjectKind) int {
	switch kind {
	case gpu.ObjectBuffer:
		return len(d.buffers)
	case gpu.ObjectVertexArray:
		return len(d.vertexArrays)
	case gpu.ObjectTexture:
		return len(d.textures)
	case gpu.ObjectProgram:
		return len(d.programs)
	case gpu.ObjectFramebuffer:
		return len(d.framebuffers)
	}
	return 0
}

func (d *Device) BufferContents(id uint32) ([]byte, bool) {
	b, ok := d.buffers[id]
	if !ok {
		return nil, false
	}
	return b.data, true
}

func (d *Device) BufferUsage(id uint32) gpu.UsageHint {
	if b, ok := d.buffers[id]; ok {
		return b.usage
	}
	return gpu.StaticDraw
}

func (d *Device) TextureSize(id uint32) (int32, int32, bool) {
	t, ok := d.textures[id]
	if !ok {
		return 0, 0, false
	}
	return t.width, t.height, true
}

func (d *Device) TextureFormat(id uint32) gpu.PixelFormat {
	if t, ok := d.textures[id]; ok {
		return t.internal
	}
	return gpu.RGBA
}

// Attachments returns the texture bound to each attachment point of a framebuffer.
func (d *Device) Attachments(fbo uint32) map[gpu.Attachment]uint32 {
	fb, ok := d.framebuffers[fbo]
	if !ok {
		return nil
	}
	out := make(map[gpu.Attachment]uint32, len(fb.attachments))
	for k, v := range fb.attachments {
		out[k] = v
	}
	return out
}

// VertexAttribs returns the attribute table of a vertex array sorted by index.
func (d *Device) VertexAttribs(vao uint32) []VertexAttrib {
	va, ok := d.vertexArrays[vao]
	if !ok {
		return nil
	}
	idx := make([]int, 0, len(va.attribs))
	for i := range va.attribs {
		idx = append(idx, int(i))
	}
	sort.Ints(idx)
	out := make([]VertexAttrib, 0, len(idx))
	for _, i := range idx {
		out = append(out, *va.attribs[uint32(i)])
	}
	return out
}

// UniformValue returns the last value written to a uniform of a program.
func (d *Device) UniformValue(prog uint32, name string) (interface{}, bool) {
	p, ok := d.programs[prog]
	if !ok {
		return nil, false
	}
	for _, u := range p.uniforms {
		if u.Name == name {
			v, ok := p.values[u.Location]
			return v, ok
		}
	}
	return nil, false
}

// SetPixel writes raw pixel bytes into a texture, standing in for rasterization.
func (d *Device) SetPixel(tex uint32, x, y int32, px []byte) error {
	t, ok := d.textures[tex]
	if !ok {
		return fmt.Errorf("unknown texture %d", tex)
	}
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return fmt.Errorf("pixel (%d,%d) outside %dx%d", x, y, t.width, t.height)
	}
	size := PixelSize(t.internal)
	at := int(y*t.width+x) * size
	copy(t.pixels[at:at+size], px)
	return nil
}
