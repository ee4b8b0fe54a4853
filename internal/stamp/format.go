package stamp

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/fwbuild/internal/buildctx"
)

// Format selects how `fwbuild stamp` prints a resolution.
type Format string

const (
	FormatPlain  Format = "plain"  // v1.2.3
	FormatDefine Format = "define" // -DFIRMWARE_VERSION="v1.2.3"
	FormatShell  Format = "shell"  // FIRMWARE_VERSION=\"v1.2.3\"
	FormatJSON   Format = "json"
	FormatHeader Format = "header"
)

// Formats lists the accepted values, in help order.
func Formats() []Format {
	return []Format{FormatPlain, FormatDefine, FormatShell, FormatJSON, FormatHeader}
}

type jsonResolution struct {
	Resolution
	Macro      string     `json:"macro"`
	Components Components `json:"components"`
}

// Render formats res for output. The result ends with a newline.
func Render(format Format, macro string, res Resolution) (string, error) {
	def := buildctx.StringDefine(macro, res.Version)
	switch format {
	case FormatPlain, "":
		return res.Version + "\n", nil
	case FormatDefine:
		return def.CompilerFlag() + "\n", nil
	case FormatShell:
		return def.ShellEscaped() + "\n", nil
	case FormatJSON:
		data, err := json.MarshalIndent(jsonResolution{
			Resolution: res,
			Macro:      macro,
			Components: res.Components(),
		}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode resolution: %w", err)
		}
		return string(data) + "\n", nil
	case FormatHeader:
		return RenderHeader(macro, res), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
