package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/ember/engine/core"
	"github.com/spaghettifunk/ember/engine/renderer/gpu"
)

const shaderTypeMarker = "#type "

// UnknownUniformError is returned when a uniform name is not active in a program.
type UnknownUniformError struct {
	Name   string
	Shader string
}

func (e *UnknownUniformError) Error() string {
	return fmt.Sprintf("shader %q has no active uniform %q", e.Shader, e.Name)
}

func (e *UnknownUniformError) Is(target error) bool {
	return target == core.ErrUnknownUniform
}

// Shader is a linked program plus the name -> location table of its active uniforms.
type Shader struct {
	Object
	name     string
	uniforms map[string]gpu.UniformInfo
}

// ParseShaderSource splits a single source blob into stages. Each stage
// starts with a line "#type vertex" or "#type fragment".
func ParseShaderSource(source string) (map[gpu.ShaderStage]string, error) {
	stages := make(map[gpu.ShaderStage]string, 2)
	parts := strings.Split(source, shaderTypeMarker)
	for _, part := range parts[1:] {
		header, body, _ := strings.Cut(part, "\n")
		switch strings.TrimSpace(header) {
		case "vertex":
			stages[gpu.VertexStage] = body
		case "fragment", "pixel":
			stages[gpu.FragmentStage] = body
		default:
			return nil, fmt.Errorf("unknown stage %q: %w", strings.TrimSpace(header), core.ErrShaderSource)
		}
	}
	if _, ok := stages[gpu.VertexStage]; !ok {
		return nil, fmt.Errorf("missing vertex stage: %w", core.ErrShaderSource)
	}
	if _, ok := stages[gpu.FragmentStage]; !ok {
		return nil, fmt.Errorf("missing fragment stage: %w", core.ErrShaderSource)
	}
	return stages, nil
}

// NewShader compiles and links source. Compile and link failures are
// returned, nothing is registered in that case.
func NewShader(ctx *Context, name, source string) (*Shader, error) {
	program, uniforms, err := buildProgram(ctx.device, name, source)
	if err != nil {
		return nil, err
	}
	s := &Shader{name: name, uniforms: uniforms}
	s.init(ctx, gpu.ObjectProgram, program, s, name)
	core.LogDebug("shader %q linked with %d uniforms", name, len(uniforms))
	return s, nil
}

func buildProgram(dev gpu.Device, name, source string) (uint32, map[string]gpu.UniformInfo, error) {
	stages, err := ParseShaderSource(source)
	if err != nil {
		return 0, nil, fmt.Errorf("shader %q: %w", name, err)
	}

	var objects []uint32
	defer func() {
		for _, o := range objects {
			dev.DeleteShader(o)
		}
	}()
	for _, stage := range []gpu.ShaderStage{gpu.VertexStage, gpu.FragmentStage} {
		obj, err := dev.CompileShader(stage, stages[stage])
		if err != nil {
			return 0, nil, fmt.Errorf("shader %q: %w: %v", name, core.ErrShaderCompile, err)
		}
		objects = append(objects, obj)
	}

	program, err := dev.LinkProgram(objects...)
	if err != nil {
		return 0, nil, fmt.Errorf("shader %q: %w: %v", name, core.ErrShaderLink, err)
	}

	uniforms := make(map[string]gpu.UniformInfo)
	for _, u := range dev.ActiveUniforms(program) {
		uniforms[u.Name] = u
	}
	return program, uniforms, nil
}

func (s *Shader) Name() string {
	return s.name
}

// Reload rebuilds the program from source. The old program stays in place
// if the new one fails to compile or link.
func (s *Shader) Reload(source string) error {
	if err := s.check(); err != nil {
		return err
	}
	program, uniforms, err := buildProgram(s.ctx.device, s.name, source)
	if err != nil {
		return err
	}
	s.ctx.device.DeleteProgram(s.id)
	s.id = program
	s.uniforms = uniforms
	s.ctx.device.Label(s.kind, s.id, s.label)
	core.LogInfo("shader %q reloaded", s.name)
	return nil
}

func (s *Shader) Bind() {
	if err := s.check(); err != nil {
		core.LogError("bind: %s", err)
		return
	}
	s.ctx.device.UseProgram(s.id)
}

func (s *Shader) Unbind() {
	s.ctx.device.UseProgram(0)
}

func (s *Shader) Destroy() error {
	if err := s.release(); err != nil {
		return err
	}
	s.ctx.device.DeleteProgram(s.id)
	if cached, ok := s.ctx.shaders[s.name]; ok && cached == s {
		delete(s.ctx.shaders, s.name)
	}
	return nil
}

// HasUniform reports whether name is active in the program.
func (s *Shader) HasUniform(name string) bool {
	_, ok := s.uniforms[name]
	return ok
}

// Uniforms returns the active uniform names.
func (s *Shader) Uniforms() []string {
	out := make([]string, 0, len(s.uniforms))
	for name := range s.uniforms {
		out = append(out, name)
	}
	return out
}

func (s *Shader) location(name string) (int32, error) {
	if err := s.check(); err != nil {
		return -1, err
	}
	u, ok := s.uniforms[name]
	if !ok {
		return -1, &UnknownUniformError{Name: name, Shader: s.name}
	}
	return u.Location, nil
}

// The setters expect the shader to be bound.

func (s *Shader) SetInt(name string, v int32) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.Uniform1i(loc, v)
	return nil
}

func (s *Shader) SetFloat(name string, v float32) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.Uniform1f(loc, v)
	return nil
}

func (s *Shader) SetVec2(name string, v mgl32.Vec2) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.Uniform2f(loc, v)
	return nil
}

func (s *Shader) SetVec3(name string, v mgl32.Vec3) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.Uniform3f(loc, v)
	return nil
}

func (s *Shader) SetVec4(name string, v mgl32.Vec4) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.Uniform4f(loc, v)
	return nil
}

func (s *Shader) SetMat4(name string, v mgl32.Mat4) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.UniformMatrix4f(loc, v)
	return nil
}

// SetInts writes v starting at the location of name, which must be the
// exact reflected name (e.g. "uTextures[0]").
func (s *Shader) SetInts(name string, v []int32) error {
	loc, err := s.location(name)
	if err != nil {
		return err
	}
	s.ctx.device.Uniform1iv(loc, v)
	return nil
}

// SetUniformArray writes an int array uniform declared as name[N].
func (s *Shader) SetUniformArray(name string, v []int32) error {
	return s.SetInts(name+"[0]", v)
}
