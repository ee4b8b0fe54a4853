package stamp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
)

// RenderHeader returns an include-guarded C header defining macro as the resolved version.
// Semver versions also get _MAJOR, _MINOR and _PATCH macros.
func RenderHeader(macro string, res Resolution) string {
	guard := strings.ToUpper(macro) + "_H"
	var b strings.Builder
	b.WriteString("/* Generated by fwbuild stamp. Do not edit. */\n")
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&b, "#define %s %s\n", macro, buildctx.CStringLiteral(res.Version))
	for _, d := range componentDefines(macro, res.Components()) {
		fmt.Fprintf(&b, "#define %s %s\n", d.Name, d.Value)
	}
	fmt.Fprintf(&b, "\n#endif /* %s */\n", guard)
	return b.String()
}

// WriteHeader writes RenderHeader output to path, creating parent directories.
// An unchanged file is left untouched so dependent objects are not rebuilt.
func WriteHeader(path, macro string, res Resolution) error {
	content := RenderHeader(macro, res)
	if existing, err := os.ReadFile(path); err == nil && string(existing) == content {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create header directory: %w", err)
	}
	// #nosec G306 -- generated header is meant to be readable by the toolchain
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write header %s: %w", path, err)
	}
	return nil
}

func componentDefines(macro string, c Components) []buildctx.Define {
	if !c.Semver {
		return nil
	}
	return []buildctx.Define{
		buildctx.IntDefine(macro+"_MAJOR", c.Major),
		buildctx.IntDefine(macro+"_MINOR", c.Minor),
		buildctx.IntDefine(macro+"_PATCH", c.Patch),
	}
}
