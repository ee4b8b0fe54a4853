package stamp

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/fwbuild/internal/config"
	fwerrors "git.home.luguber.info/inful/fwbuild/internal/errors"
	"git.home.luguber.info/inful/fwbuild/internal/logfields"
)

// Source identifies which resolution tier produced a version.
type Source string

const (
	SourceExactTag Source = "exact-tag"
	SourceDescribe Source = "describe"
	SourceFallback Source = "fallback"
)

// Resolution is a resolved firmware version and the tier it came from.
type Resolution struct {
	Version string `json:"version"`
	Source  Source `json:"source"`
}

// Resolver runs the tiers in order.
type Resolver struct {
	Describer  Describer
	Fallback   string
	Repository string // for log context only
}

// NewResolver returns a resolver with the default fallback when fallback is empty.
func NewResolver(d Describer, fallback string) *Resolver {
	if fallback == "" {
		fallback = config.DefaultFallback
	}
	return &Resolver{Describer: d, Fallback: fallback}
}

// Resolve never fails: any error or empty answer moves on to the next tier.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	if r.Describer != nil {
		v, err := r.Describer.ExactTag(ctx)
		if err == nil && v != "" {
			return Resolution{Version: v, Source: SourceExactTag}
		}
		slog.Debug("No exact tag for HEAD", logfields.Error(err))

		v, err = r.Describer.Describe(ctx)
		if err == nil && v != "" {
			return Resolution{Version: v, Source: SourceDescribe}
		}
		slog.Debug("git describe unavailable, using fallback version",
			logfields.Error(fwerrors.NoVersionMetadata(r.Repository, err)))
	}
	fallback := r.Fallback
	if fallback == "" {
		fallback = config.DefaultFallback
	}
	return Resolution{Version: fallback, Source: SourceFallback}
}
