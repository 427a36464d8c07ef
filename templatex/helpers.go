package templatex

import (
	"fmt"
	"path"
	"reflect"
	"regexp"
	"strings"

	"github.com/aymerick/raymond"
)

var (
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
	optionsType = reflect.TypeOf(&raymond.Options{})
	safeType    = reflect.TypeOf(raymond.SafeString(""))

	// {{!-- args: url text --}} on the first line names the positional arguments.
	snippetArgsPattern = regexp.MustCompile(`^\s*\{\{!(?:--)?\s*args:([^}]*?)(?:--)?\}\}`)
)

func builtinHelpers() map[string]any {
	return map[string]any{
		"relativize":     relativize,
		"resolvePage":    resolvePage,
		"resolvePageURL": resolvePageURL,
	}
}

// relativize turns a root-relative URL into one relative to the current
// page.url. Without a page URL the site path is prepended instead.
func relativize(to any, options *raymond.Options) string {
	target := str(to)
	if target == "" {
		return "#"
	}
	if !strings.HasPrefix(target, "/") {
		return target
	}
	root := options.Data("root")
	from := str(lookup(root, "page", "url"))
	if from == "" {
		return str(lookup(root, "site", "path")) + target
	}

	hash := ""
	if idx := strings.Index(target, "#"); idx >= 0 {
		hash = target[idx:]
		target = target[:idx]
	}
	toDir := strings.HasSuffix(target, "/")
	if target == from {
		switch {
		case hash != "":
			return hash
		case toDir:
			return "./"
		default:
			return path.Base(target)
		}
	}

	rel := relativePath(path.Dir(from+"."), target)
	if rel == "" {
		if toDir {
			return "./" + hash
		}
		return "../" + path.Base(target) + hash
	}
	if toDir {
		rel += "/"
	}
	return rel + hash
}

// resolvePageURL maps a page spec such as component:module:page.adoc to
// /page.html.
func resolvePageURL(spec any, _ *raymond.Options) string {
	return pageURL(str(spec))
}

// resolvePage returns a minimal page object for spec, or nil when spec is empty.
func resolvePage(spec any, _ *raymond.Options) any {
	url := pageURL(str(spec))
	if url == "" {
		return nil
	}
	return map[string]any{"pub": map[string]any{"url": url}}
}

func pageURL(spec string) string {
	if spec == "" {
		return ""
	}
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		spec = spec[idx+1:]
	}
	// A name without an extension is kept whole.
	if idx := strings.LastIndex(spec, "."); idx >= 0 {
		spec = spec[:idx]
	}
	return "/" + spec + ".html"
}

// relativePath returns the slash-separated path of to relative to the
// directory from. Both are absolute URL paths.
func relativePath(from, to string) string {
	fromParts := segments(from)
	toParts := segments(to)
	i := 0
	for i < len(fromParts) && i < len(toParts) && fromParts[i] == toParts[i] {
		i++
	}
	parts := make([]string, 0, len(fromParts)-i+len(toParts)-i)
	for range fromParts[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[i:]...)
	return strings.Join(parts, "/")
}

func segments(p string) []string {
	clean := path.Clean("/" + p)
	if clean == "/" {
		return nil
	}
	return strings.Split(clean[1:], "/")
}

// snippetHelper compiles a helper written as a Handlebars snippet. Calling
// {{name a b key=v}} renders the snippet against
// {args: [a, b], hash: {key: v}, root: @root} plus one key per declared
// argument name, and inserts the result unescaped.
func snippetHelper(src Source, funcs map[string]any) (any, error) {
	body, err := src.Load()
	if err != nil {
		return nil, err
	}
	tpl, err := raymond.Parse(body)
	if err != nil {
		return nil, err
	}
	tpl.RegisterHelpers(funcs)

	var names []string
	if m := snippetArgsPattern.FindStringSubmatch(body); m != nil {
		names = strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	}

	name := src.Name
	call := func(args []any, options *raymond.Options) raymond.SafeString {
		root := options.Data("root")
		ctx := map[string]any{"args": args, "hash": options.Hash(), "root": root}
		for i, argName := range names {
			ctx[argName] = args[i]
		}
		frame := raymond.NewDataFrame()
		frame.Set("root", root)
		out, err := tpl.ExecWith(ctx, frame)
		if err != nil {
			// raymond reports a panicking helper as an Exec error.
			panic(fmt.Errorf("helper %s: %w", name, err))
		}
		return raymond.SafeString(out)
	}
	return helperFunc(len(names), call), nil
}

// helperFunc builds a function taking arity values plus *raymond.Options,
// the shape raymond requires for a helper called with arity parameters.
func helperFunc(arity int, call func([]any, *raymond.Options) raymond.SafeString) any {
	in := make([]reflect.Type, arity+1)
	for i := 0; i < arity; i++ {
		in[i] = anyType
	}
	in[arity] = optionsType
	fnType := reflect.FuncOf(in, []reflect.Type{safeType}, false)
	return reflect.MakeFunc(fnType, func(values []reflect.Value) []reflect.Value {
		args := make([]any, arity)
		for i := range args {
			args[i] = values[i].Interface()
		}
		options := values[arity].Interface().(*raymond.Options)
		return []reflect.Value{reflect.ValueOf(call(args, options))}
	}).Interface()
}

func lookup(value any, keys ...string) any {
	for _, key := range keys {
		switch m := value.(type) {
		case map[string]any:
			value = m[key]
		case map[any]any:
			value = m[key]
		default:
			return nil
		}
	}
	return value
}

func str(value any) string {
	if value == nil {
		return ""
	}
	return raymond.Str(value)
}
