// Package prompt renders generation prompts from named templates and flat
// variable maps.
//
// Template syntax:
//
//	{{systemPrompt}}             replaced first with the system prompt
//	{{#if name}} ... {{/if}}     kept when vars[name] is truthy, else removed
//	{{name}}                     replaced with the string form of vars[name]
//
// Conditionals do not nest. Placeholders whose name is not in vars are left
// in the output untouched.
package prompt

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrUnresolvedPlaceholders is wrapped by the error Build returns in strict
// mode when placeholders remain after substitution.
var ErrUnresolvedPlaceholders = errors.New("unresolved prompt placeholders")

// UnresolvedError lists the placeholder names left in a rendered prompt.
type UnresolvedError struct {
	Names []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnresolvedPlaceholders, strings.Join(e.Names, ", "))
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolvedPlaceholders }

const systemPromptToken = "{{systemPrompt}}"

var (
	conditionalRe = regexp.MustCompile(`(?s)\{\{#if (\w+)\}\}(.*?)\{\{/if\}\}`)
	placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)
)

// Builder renders templates. The zero value is lenient: unresolved
// placeholders are logged and Build returns a nil error.
type Builder struct {
	Strict bool
}

// Build renders template with vars. The rendered text is always returned; in
// strict mode a non-nil *UnresolvedError accompanies it when placeholders
// could not be resolved.
func (b Builder) Build(template string, vars map[string]any, systemPrompt string) (string, error) {
	out := strings.ReplaceAll(template, systemPromptToken, systemPrompt)

	out = conditionalRe.ReplaceAllStringFunc(out, func(block string) string {
		m := conditionalRe.FindStringSubmatch(block)
		if truthy(vars[m[1]]) {
			return m[2]
		}
		return ""
	})

	unresolved := map[string]struct{}{}
	out = placeholderRe.ReplaceAllStringFunc(out, func(token string) string {
		name := token[2 : len(token)-2]
		v, ok := vars[name]
		if !ok {
			unresolved[name] = struct{}{}
			return token
		}
		return formatValue(v)
	})

	if len(unresolved) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(unresolved))
	for n := range unresolved {
		names = append(names, n)
	}
	sort.Strings(names)

	if b.Strict {
		return out, &UnresolvedError{Names: names}
	}
	log.Warn().Strs("placeholders", names).Msg("prompt rendered with unresolved placeholders")
	return out, nil
}

// truthy follows template conventions: missing, nil, false, zero numbers,
// empty strings and empty collections are false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return truthy(rv.Elem().Interface())
	}
	return true
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return formatValue(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
