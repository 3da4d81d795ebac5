package fetch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rvalverde/rankpipe/core"
)

// Mode selects which strategies the selector may use.
type Mode string

const (
	// ModeAuto tries the lightweight fetch first and falls back to a
	// rendered fetch when the result fails the readiness check.
	ModeAuto Mode = "auto"
	// ModeHTTP forces the lightweight fetch.
	ModeHTTP Mode = "http"
	// ModeBrowser forces the rendered fetch.
	ModeBrowser Mode = "browser"
)

// ParseMode validates a mode string from config or flags.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeAuto:
		return ModeAuto, nil
	case ModeHTTP:
		return ModeHTTP, nil
	case ModeBrowser:
		return ModeBrowser, nil
	}
	return "", fmt.Errorf("unknown fetch mode %q (want auto, http, or browser)", s)
}

// state is the selector's position in the fallback sequence.
type state int

const (
	stateNotTried state = iota
	stateLightweight
	stateRendered
	stateFailed
)

// ReadyFunc reports whether fetched HTML contains the structural
// markers the caller needs. Nil means any non-gated result is ready.
type ReadyFunc func(html string) bool

// SelectorConfig wires a Selector.
type SelectorConfig struct {
	Mode     Mode
	HTTP     core.Fetcher
	Browser  core.Fetcher // may be nil when Mode is ModeHTTP
	Ready    ReadyFunc
	Headless bool // whether the rendered fetch runs headless
	Log      *zap.Logger
}

// Selector picks a fetch strategy per page. In auto mode it walks the
// sequence not-tried → lightweight → rendered → failed, advancing
// whenever a result is gated or fails the readiness check.
type Selector struct {
	cfg SelectorConfig
}

// NewSelector creates a Selector.
func NewSelector(cfg SelectorConfig) *Selector {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Selector{cfg: cfg}
}

// Fetch retrieves url with the configured strategy. Forced modes run a
// single strategy and never fall back; their results may still carry
// the Gated flag for the caller to report.
func (s *Selector) Fetch(ctx context.Context, url string) (*core.FetchResult, error) {
	switch s.cfg.Mode {
	case ModeHTTP:
		return s.fetchOne(ctx, s.cfg.HTTP, url)
	case ModeBrowser:
		return s.fetchOne(ctx, s.cfg.Browser, url)
	default:
		return s.auto(ctx, url)
	}
}

func (s *Selector) fetchOne(ctx context.Context, f core.Fetcher, url string) (*core.FetchResult, error) {
	if f == nil {
		return nil, fmt.Errorf("fetching %s: no fetcher for mode %q", url, s.cfg.Mode)
	}
	res, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	res.Gated = Gated(res.HTML, res.FinalURL)
	return res, nil
}

func (s *Selector) auto(ctx context.Context, url string) (*core.FetchResult, error) {
	var (
		st    = stateNotTried
		light *core.FetchResult
		cause error
	)

	for st != stateFailed {
		switch st {
		case stateNotTried:
			st = stateLightweight

		case stateLightweight:
			res, err := s.cfg.HTTP.Fetch(ctx, url)
			if err != nil {
				s.cfg.Log.Warn("lightweight fetch failed",
					zap.String("url", url), zap.Error(err))
				cause = err
				st = stateRendered
				continue
			}
			res.Gated = Gated(res.HTML, res.FinalURL)
			if s.ready(res) {
				return res, nil
			}
			s.cfg.Log.Info("falling back to rendered fetch",
				zap.String("url", url),
				zap.Bool("gated", res.Gated),
				zap.String("page_title", pageTitle(res.HTML)))
			light = res
			st = stateRendered

		case stateRendered:
			if s.cfg.Browser == nil {
				if cause == nil {
					cause = fmt.Errorf("lightweight result not usable and no rendered fetcher configured")
				}
				st = stateFailed
				continue
			}
			res, err := s.cfg.Browser.Fetch(ctx, url)
			if err != nil {
				cause = err
				st = stateFailed
				continue
			}
			res.Gated = Gated(res.HTML, res.FinalURL)
			if light != nil {
				res.RawHTML = light.HTML
			}
			if res.Gated && s.cfg.Headless {
				cause = fmt.Errorf("%w: %s is still gated after a rendered fetch; re-run with headless disabled to pass the check once", ErrGateDetected, url)
				st = stateFailed
				continue
			}
			// A rendered result that still fails the readiness check is
			// returned as-is; the caller reports the empty parse.
			return res, nil
		}
	}

	return nil, fmt.Errorf("fetching %s: %w", url, cause)
}

// ready reports whether a result needs no further fallback.
func (s *Selector) ready(res *core.FetchResult) bool {
	if res.Gated {
		return false
	}
	return s.cfg.Ready == nil || s.cfg.Ready(res.HTML)
}
