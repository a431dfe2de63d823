package fsys

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrRecursiveWildcard      = errors.New("recursive wildcard is not supported")
	ErrSeparatorAfterWildcard = errors.New("directory separators are not allowed after wildcards")
	ErrMultipleWildcards      = errors.New("only one wildcard is allowed")
)

// PatternError reports an output pattern that cannot be templated.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("illegal output pattern, %v: '%s'", e.Err, e.Pattern)
}

func (e *PatternError) Unwrap() error { return e.Err }

// IsWildcardPath reports whether p contains any glob meta character.
func IsWildcardPath(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// IsRecursiveWildcardPath reports whether p contains a ** segment.
func IsRecursiveWildcardPath(p string) bool {
	return strings.Contains(p, "**")
}

// StaticPrefix returns the directory part of pattern that precedes its first
// wildcard segment. For a pattern without wildcards it is the pattern's
// directory.
func StaticPrefix(pattern string) string {
	pattern = path.Clean(toSlash(pattern))
	if !IsWildcardPath(pattern) {
		return path.Dir(pattern)
	}
	segments := strings.Split(pattern, "/")
	static := segments[:0:0]
	for _, s := range segments {
		if IsWildcardPath(s) {
			break
		}
		static = append(static, s)
	}
	switch {
	case len(static) == 0:
		return "."
	case len(static) == 1 && static[0] == "":
		return "/"
	}
	return strings.Join(static, "/")
}

// CompileOutputPath templates outputPattern against the part of inputPath
// matched by inputPattern. An output pattern without a wildcard is returned
// unchanged. When text follows the wildcard, the input's extension is replaced
// by it; a bare trailing wildcard keeps the matched path whole.
func CompileOutputPath(inputPath, inputPattern, outputPattern string) (string, error) {
	if !IsWildcardPath(outputPattern) {
		return outputPattern, nil
	}
	if IsRecursiveWildcardPath(outputPattern) {
		return "", &PatternError{Pattern: outputPattern, Err: ErrRecursiveWildcard}
	}
	if strings.Count(outputPattern, "*") > 1 {
		return "", &PatternError{Pattern: outputPattern, Err: ErrMultipleWildcards}
	}
	idx := strings.IndexByte(outputPattern, '*')
	if idx < 0 {
		return "", &PatternError{Pattern: outputPattern, Err: fmt.Errorf("unsupported wildcard")}
	}
	head, tail := outputPattern[:idx], outputPattern[idx+1:]
	if strings.Contains(tail, "/") {
		return "", &PatternError{Pattern: outputPattern, Err: ErrSeparatorAfterWildcard}
	}

	matched, err := relativeTo(StaticPrefix(inputPattern), toSlash(inputPath))
	if err != nil {
		return "", err
	}
	if tail != "" {
		matched = strings.TrimSuffix(matched, path.Ext(matched))
	}
	return head + matched + tail, nil
}

func relativeTo(base, p string) (string, error) {
	p = path.Clean(p)
	switch base {
	case ".":
		return strings.TrimPrefix(p, "./"), nil
	case "/":
		return strings.TrimPrefix(p, "/"), nil
	}
	rest, ok := strings.CutPrefix(p, base+"/")
	if !ok {
		return "", fmt.Errorf("input %q is outside of %q", p, base)
	}
	return rest, nil
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
