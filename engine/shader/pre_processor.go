// pre_processor.go implements the WGSL pre-processor. It scans shader source for
// @ghost: annotations in line comments and replaces them with the WGSL they stand for.
//
// Supported annotations:
//   - //@ghost:include <file> injects another WGSL file, resolved relative to the file
//     that contains the annotation. Included files may include further files; cycles fail.
package shader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an annotation within a WGSL comment line.
const annotationPrefix = "@ghost:"

// annotationTypeInclude injects the contents of another WGSL file at the annotation site.
//
// Syntax: //@ghost:include <file>
const annotationTypeInclude = "include"

// maxIncludeDepth bounds nested includes.
const maxIncludeDepth = 16

// ErrAnnotation is returned for malformed or unknown annotations and failed includes.
var ErrAnnotation = errors.New("invalid shader annotation")

// annotation is one parsed @ghost: comment line.
type annotation struct {
	Type string
	Args []string
	Line int
}

// PreProcessor expands @ghost: annotations in WGSL source.
type PreProcessor interface {
	// Process replaces every annotation line with its expansion. Other lines are kept as is.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: error wrapping ErrAnnotation, or the include's I/O error
	Process(source string) (string, error)

	// Includes returns the absolute paths of every file injected by the last Process call,
	// in the order they were first included.
	//
	// Returns:
	//   - []string: the included files
	Includes() []string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// dir is the directory include paths of the top-level source resolve against.
	dir string

	// includes accumulates included files during a Process call.
	includes []string

	// stack holds the files currently being expanded, for cycle detection.
	stack []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor whose top-level includes resolve against dir.
//
// Parameters:
//   - dir: the directory of the file being processed
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor(dir string) PreProcessor {
	return &preProcessor{dir: dir}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.includes = p.includes[:0]
	p.stack = p.stack[:0]
	return p.expand(p.dir, source)
}

func (p *preProcessor) Includes() []string {
	return p.includes
}

// expand processes one source whose includes resolve against dir.
func (p *preProcessor) expand(dir, source string) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			included, err := p.include(dir, a)
			if err != nil {
				return "", err
			}
			out = append(out, included)
		default:
			return "", fmt.Errorf("line %d: %w: unknown type %q", a.Line, ErrAnnotation, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) include(dir string, a *annotation) (string, error) {
	path, err := filepath.Abs(filepath.Join(dir, a.Args[0]))
	if err != nil {
		return "", fmt.Errorf("line %d: %w: %w", a.Line, ErrAnnotation, err)
	}
	if slices.Contains(p.stack, path) {
		return "", fmt.Errorf("line %d: %w: include cycle through %s", a.Line, ErrAnnotation, path)
	}
	if len(p.stack) >= maxIncludeDepth {
		return "", fmt.Errorf("line %d: %w: includes nested deeper than %d", a.Line, ErrAnnotation, maxIncludeDepth)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("line %d: failed to include %s: %w", a.Line, a.Args[0], err)
	}
	if !slices.Contains(p.includes, path) {
		p.includes = append(p.includes, path)
	}

	p.stack = append(p.stack, path)
	defer func() { p.stack = p.stack[:len(p.stack)-1] }()

	expanded, err := p.expand(filepath.Dir(path), string(raw))
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Args[0], err)
	}
	return expanded, nil
}

// parseAnnotation parses a single line. Lines that are not @ghost: comments yield nil.
//
// Parameters:
//   - line: one source line
//   - lineNum: its 1-based line number
//
// Returns:
//   - *annotation: the parsed annotation, or nil
//   - error: error wrapping ErrAnnotation if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*annotation, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "//")
	if !ok {
		return nil, nil
	}
	rest, ok = strings.CutPrefix(strings.TrimSpace(rest), annotationPrefix)
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: %w: missing type", lineNum, ErrAnnotation)
	}
	a := &annotation{Type: fields[0], Args: fields[1:], Line: lineNum}

	if a.Type == annotationTypeInclude && len(a.Args) != 1 {
		return nil, fmt.Errorf("line %d: %w: include takes exactly one file, got %d", lineNum, ErrAnnotation, len(a.Args))
	}
	return a, nil
}
