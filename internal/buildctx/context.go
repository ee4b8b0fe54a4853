// Package buildctx models the build-system context handed to fwbuild hooks: the active
// environment, the build flags in effect, and the compiler definitions fwbuild may append to.
package buildctx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Environment variable names read by FromEnv.
const (
	EnvEnvironment = "PIOENV"
	EnvBuildFlags  = "BUILD_FLAGS"
)

// Context is owned by the build system. fwbuild reads Environment and BuildFlags and only
// ever appends to Defines.
type Context struct {
	Environment string
	BuildFlags  []string
	Defines     []Define
}

// New creates a context for the given environment and flags.
func New(environment string, flags ...string) *Context {
	return &Context{Environment: environment, BuildFlags: append([]string(nil), flags...)}
}

// HasFlag reports whether flag is active. Compound entries such as "-O0 --coverage" count
// when they contain the flag.
func (c *Context) HasFlag(flag string) bool {
	if c == nil || flag == "" {
		return false
	}
	for _, f := range c.BuildFlags {
		if f == flag || strings.Contains(f, flag) {
			return true
		}
	}
	return false
}

// AppendDefine adds d. An existing definition with the same name is replaced in place so that
// repeated stamping of one build does not stack duplicate macros.
func (c *Context) AppendDefine(d Define) {
	for i := range c.Defines {
		if c.Defines[i].Name == d.Name {
			c.Defines[i] = d
			return
		}
	}
	c.Defines = append(c.Defines, d)
}

// Define looks up a definition by name.
func (c *Context) Define(name string) (Define, bool) {
	for _, d := range c.Defines {
		if d.Name == name {
			return d, true
		}
	}
	return Define{}, false
}

// CompilerFlags renders every definition as a -D flag.
func (c *Context) CompilerFlags() []string {
	out := make([]string, 0, len(c.Defines))
	for _, d := range c.Defines {
		out = append(out, d.CompilerFlag())
	}
	return out
}

// contextFile is the on-disk YAML form.
type contextFile struct {
	Environment string   `yaml:"environment"`
	BuildFlags  []string `yaml:"build_flags,omitempty"`
	Defines     []string `yaml:"defines,omitempty"`
}

// Load reads a context file. A missing file yields an empty context.
func Load(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Context{}, nil
		}
		return nil, fmt.Errorf("read build context: %w", err)
	}
	var f contextFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse build context %s: %w", path, err)
	}
	c := &Context{Environment: f.Environment, BuildFlags: f.BuildFlags}
	for _, raw := range f.Defines {
		d, err := ParseDefine(raw)
		if err != nil {
			return nil, fmt.Errorf("build context %s: %w", path, err)
		}
		c.Defines = append(c.Defines, d)
	}
	return c, nil
}

// Save writes the context back to path, creating parent directories as needed.
func (c *Context) Save(path string) error {
	f := contextFile{Environment: c.Environment, BuildFlags: c.BuildFlags}
	for _, d := range c.Defines {
		f.Defines = append(f.Defines, d.String())
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal build context: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create build context directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write build context: %w", err)
	}
	return nil
}

// FromEnv builds a context from PIOENV and BUILD_FLAGS. BUILD_FLAGS is split with shell
// quoting rules so "-DNAME=\"a b\"" stays one flag.
func FromEnv(getenv func(string) string) (*Context, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	c := &Context{Environment: getenv(EnvEnvironment)}
	if raw := strings.TrimSpace(getenv(EnvBuildFlags)); raw != "" {
		flags, err := shlex.Split(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvBuildFlags, err)
		}
		c.BuildFlags = flags
	}
	return c, nil
}

// Override applies explicit environment/flag values on top of c.
func (c *Context) Override(environment string, flags []string) {
	if environment != "" {
		c.Environment = environment
	}
	if len(flags) > 0 {
		c.BuildFlags = append(c.BuildFlags, flags...)
	}
}
