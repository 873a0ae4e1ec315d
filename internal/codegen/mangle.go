// Package codegen lowers canonical/ARC IR to an in-memory LLVM-like
// module via github.com/llir/llvm, implementing spec.md §4.7's value
// representation, aggregate construction, and the §6 mangling scheme.
package codegen

import "strings"

// escapePairs lists the generic-bracket characters spec.md §6's mangling
// scheme escapes, checked in order so multi-character replacements never
// re-match a previously substituted `$`.
var escapePairs = []struct{ from, to string }{
	{"<", "$LT"},
	{">", "$GT"},
	{"[", "$LB"},
	{"]", "$RB"},
}

func escapeMangle(s string) string {
	for _, p := range escapePairs {
		s = strings.ReplaceAll(s, p.from, p.to)
	}
	return s
}

// indexGenericMarker finds the first "$G" generic-instantiation separator
// in s, skipping any "$GT" it encounters (the escape for a literal '>'),
// since the two markers share a two-character prefix.
func indexGenericMarker(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '$' && s[i+1] == 'G' {
			if i+2 < len(s) && s[i+2] == 'T' {
				continue
			}
			return i
		}
	}
	return -1
}

// splitGenericArgs splits a "$G<arg>$G<arg>..." tail (as found by
// indexGenericMarker) into its individual still-escaped argument strings.
func splitGenericArgs(s string) []string {
	var out []string
	for len(s) > 0 {
		s = s[2:] // drop the leading "$G"
		next := indexGenericMarker(s)
		if next == -1 {
			out = append(out, s)
			break
		}
		out = append(out, s[:next])
		s = s[next:]
	}
	return out
}

func unescapeMangle(s string) string {
	// Longest markers first so "$LT" isn't partially consumed by a
	// shorter prefix before the rest of the token is seen.
	replacer := strings.NewReplacer(
		"$LT", "<",
		"$GT", ">",
		"$LB", "[",
		"$RB", "]",
	)
	return replacer.Replace(s)
}

// MangleFunction returns the link name for a plain function at modulePath
// (dot-separated) named name: `_ori_<modulePath, '.'->'>$<name>`. Escaping
// runs before the dot-to-'>' substitution so a literal '>' introduced as a
// module-segment separator is never re-escaped as $GT.
func MangleFunction(modulePath string, name string) string {
	escapedPath := strings.ReplaceAll(escapeMangle(modulePath), ".", ">")
	return "_ori_" + escapedPath + "$" + escapeMangle(name)
}

// MangleMethod returns the link name for a trait-impl method:
// `_ori_<type>$<Trait>$<method>`.
func MangleMethod(typeName, trait, method string) string {
	return "_ori_" + escapeMangle(typeName) + "$" + escapeMangle(trait) + "$" + escapeMangle(method)
}

// MangleGeneric appends a generic instantiation's argument type names to an
// already-mangled base name, separated by `$G`.
func MangleGeneric(base string, typeArgs ...string) string {
	if len(typeArgs) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	for _, a := range typeArgs {
		b.WriteString("$G")
		b.WriteString(escapeMangle(a))
	}
	return b.String()
}

// Demangled is the result of splitting a mangled link name back into its
// logical components.
type Demangled struct {
	IsMethod    bool
	ModulePath  string // plain functions
	TypeName    string // methods
	Trait       string // methods
	Name        string
	GenericArgs []string
}

// Demangle inverts MangleFunction/MangleMethod/MangleGeneric. It returns
// ok=false for any name not produced by this package's own mangling
// (callers should treat that as "not an ori symbol", not a parse error).
func Demangle(mangled string) (Demangled, bool) {
	const prefix = "_ori_"
	if !strings.HasPrefix(mangled, prefix) {
		return Demangled{}, false
	}
	rest := mangled[len(prefix):]

	var generics []string
	if idx := indexGenericMarker(rest); idx >= 0 {
		genericPart := rest[idx:]
		rest = rest[:idx]
		for _, g := range splitGenericArgs(genericPart) {
			if g == "" {
				continue
			}
			generics = append(generics, unescapeMangle(g))
		}
	}

	parts := strings.Split(rest, "$")
	switch len(parts) {
	case 2:
		return Demangled{
			ModulePath:  unescapeMangle(strings.ReplaceAll(parts[0], ">", ".")),
			Name:        unescapeMangle(parts[1]),
			GenericArgs: generics,
		}, true
	case 3:
		return Demangled{
			IsMethod:    true,
			TypeName:    unescapeMangle(parts[0]),
			Trait:       unescapeMangle(parts[1]),
			Name:        unescapeMangle(parts[2]),
			GenericArgs: generics,
		}, true
	default:
		return Demangled{}, false
	}
}
