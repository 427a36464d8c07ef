package templatex

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sort"
	"sync"

	"github.com/aymerick/raymond"
)

// DefaultLayout is used when a page names a layout that is not compiled.
const DefaultLayout = "default"

// Options lists where a Cache discovers its helpers, partials and layouts.
type Options struct {
	// Funcs are Go helpers registered after the built-ins.
	Funcs map[string]any
	// Helpers supply Handlebars snippet helpers, see snippetHelper.
	Helpers  []Provider
	Partials []Provider
	Layouts  []Provider
}

// Set is one generation of compiled layouts. It is never modified after
// initialization, so a render may keep using it after the cache is reset.
type Set struct {
	layouts map[string]*raymond.Template
}

// Layout returns the compiled layout registered under name.
func (s *Set) Layout(name string) (*raymond.Template, bool) {
	tpl, ok := s.layouts[name]
	return tpl, ok
}

// Names lists the compiled layouts in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cache compiles layouts lazily and keeps them until Reset.
type Cache struct {
	opts   Options
	logger *slog.Logger

	mu  sync.Mutex
	set *Set
}

// NewCache constructs an uninitialized cache.
func NewCache(opts Options, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{opts: opts, logger: logger}
}

// EnsureInitialized registers helpers and partials and compiles every layout
// unless that already happened since the last Reset. Concurrent callers wait
// for a single initialization.
func (c *Cache) EnsureInitialized() (*Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set != nil {
		return c.set, nil
	}
	set, err := c.initialize()
	if err != nil {
		return nil, err
	}
	c.set = set
	return set, nil
}

// Initialized reports whether a compiled set is cached.
func (c *Cache) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set != nil
}

// Reset drops the compiled set. The next EnsureInitialized rebuilds everything.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.set = nil
	c.mu.Unlock()
}

func (c *Cache) initialize() (*Set, error) {
	helpers := builtinHelpers()
	for name, fn := range c.opts.Funcs {
		if err := validHelper(fn); err != nil {
			c.logger.Warn("helper skipped", "helper", name, "error", err)
			continue
		}
		helpers[name] = fn
	}

	snippetFuncs := maps.Clone(helpers)
	for _, provider := range c.opts.Helpers {
		sources, err := provider.Sources()
		if err != nil {
			c.logger.Warn("list helpers", "error", err)
			continue
		}
		for _, src := range sources {
			fn, err := snippetHelper(src, snippetFuncs)
			if err != nil {
				c.logger.Warn("helper skipped", "helper", src.Name, "error", err)
				continue
			}
			helpers[src.Name] = fn
		}
	}

	// Partials are parsed here: raymond parses raw partial sources lazily
	// on first use without locking, and a Set is shared by concurrent renders.
	partials := make(map[string]*raymond.Template)
	for _, provider := range c.opts.Partials {
		sources, err := provider.Sources()
		if err != nil {
			return nil, fmt.Errorf("list partials: %w", err)
		}
		for _, src := range sources {
			body, err := src.Load()
			if err != nil {
				return nil, fmt.Errorf("load partial %s: %w", src.Name, err)
			}
			tpl, err := raymond.Parse(body)
			if err != nil {
				return nil, fmt.Errorf("compile partial %s: %w", src.Name, err)
			}
			partials[src.Name] = tpl
		}
	}

	layouts := make(map[string]*raymond.Template)
	for _, provider := range c.opts.Layouts {
		sources, err := provider.Sources()
		if err != nil {
			return nil, fmt.Errorf("list layouts: %w", err)
		}
		for _, src := range sources {
			body, err := src.Load()
			if err != nil {
				return nil, fmt.Errorf("load layout %s: %w", src.Name, err)
			}
			tpl, err := raymond.Parse(body)
			if err != nil {
				return nil, fmt.Errorf("compile layout %s: %w", src.Name, err)
			}
			tpl.RegisterHelpers(helpers)
			for name, partial := range partials {
				tpl.RegisterPartialTemplate(name, partial)
			}
			layouts[src.Name] = tpl
		}
	}

	c.logger.Debug("templates initialized", "helpers", len(helpers), "partials", len(partials), "layouts", len(layouts))
	return &Set{layouts: layouts}, nil
}

// Exec renders tpl against model with @root bound to model.
func Exec(tpl *raymond.Template, model any) (string, error) {
	frame := raymond.NewDataFrame()
	frame.Set("root", model)
	return tpl.ExecWith(model, frame)
}

// validHelper rejects values raymond would panic on when registered.
func validHelper(fn any) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return errors.New("helper is not a function")
	}
	if t.NumIn() == 0 || t.NumOut() != 1 {
		return errors.New("helper must take at least one argument and return one value")
	}
	return nil
}
