package site

import (
	"log/slog"
	"maps"
	"path/filepath"

	"github.com/docs-ui/uipreview/config"
	"github.com/docs-ui/uipreview/metrics"
	"github.com/docs-ui/uipreview/renderer"
	"github.com/docs-ui/uipreview/templatex"
)

// Paths are the root path markers handed to layouts.
type Paths struct {
	SiteRoot string
	UIRoot   string
}

var (
	// DevPaths serve UI assets from the dev server root.
	DevPaths = Paths{SiteRoot: ".", UIRoot: ""}
	// BuildPaths point at the UI bundle copied under _ next to the pages.
	BuildPaths = Paths{SiteRoot: ".", UIRoot: "./_"}
)

// Service is the render context shared by the dev server, the module
// endpoint and the static build. It owns the template cache and the site
// model; Invalidate is the only way to clear them.
type Service struct {
	cfg        *config.Config
	logger     *slog.Logger
	templates  *templatex.Cache
	model      *SiteModel
	converters *renderer.Registry
	attributes map[string]string
	paths      Paths
	recorder   metrics.Recorder
}

// Option customises a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	logger     *slog.Logger
	templates  *templatex.Options
	converters *renderer.Registry
	paths      Paths
	recorder   metrics.Recorder
}

// WithLogger sets the logger used for render and build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *serviceOptions) { o.logger = logger }
}

// WithTemplates replaces the directory providers derived from the config.
func WithTemplates(opts templatex.Options) Option {
	return func(o *serviceOptions) { o.templates = &opts }
}

// WithConverters replaces the default converter registry.
func WithConverters(reg *renderer.Registry) Option {
	return func(o *serviceOptions) { o.converters = reg }
}

// WithPaths selects the root path markers, DevPaths by default.
func WithPaths(paths Paths) Option {
	return func(o *serviceOptions) { o.paths = paths }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *serviceOptions) { o.recorder = r }
}

// NewService constructs a Service for cfg.
func NewService(cfg *config.Config, opts ...Option) *Service {
	o := serviceOptions{paths: DevPaths}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	if o.converters == nil {
		o.converters = renderer.Default()
	}
	if o.templates == nil {
		o.templates = &templatex.Options{
			Helpers:  []templatex.Provider{templatex.Dir{Path: cfg.HelpersDir()}},
			Partials: []templatex.Provider{templatex.Dir{Path: cfg.PartialsDir()}},
			Layouts:  []templatex.Provider{templatex.Dir{Path: cfg.LayoutsDir()}},
		}
	}

	attributes := renderer.DefaultAsciiDocAttributes()
	maps.Copy(attributes, cfg.AsciiDoc.Attributes)

	return &Service{
		cfg:        cfg,
		logger:     o.logger,
		templates:  templatex.NewCache(*o.templates, o.logger),
		model:      NewSiteModel(cfg.SiteModel),
		converters: o.converters,
		attributes: attributes,
		paths:      o.paths,
		recorder:   o.recorder,
	}
}

// Invalidate drops the compiled templates and the cached site model. They
// are rebuilt lazily by the next render.
func (s *Service) Invalidate() {
	s.templates.Reset()
	s.model.Reset()
	s.logger.Debug("caches cleared")
}

// Templates exposes the template cache.
func (s *Service) Templates() *templatex.Cache {
	return s.templates
}

// SiteModel exposes the site model loader.
func (s *Service) SiteModel() *SiteModel {
	return s.model
}

// Extensions lists the source extensions the service can render.
func (s *Service) Extensions() []string {
	return s.converters.Extensions()
}

// Dependencies lists the glob patterns whose changes must invalidate the
// render caches.
func (s *Service) Dependencies() []string {
	return []string{
		filepath.Join(s.cfg.LayoutsDir(), "*.hbs"),
		filepath.Join(s.cfg.PartialsDir(), "*.hbs"),
		filepath.Join(s.cfg.HelpersDir(), "*.hbs"),
		s.model.Path(),
	}
}
