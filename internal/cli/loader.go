package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reconcile/internal/element"
)

// Document is a loaded tree document: the frames to render in order.
type Document struct {
	Path   string
	Frames []*element.Element
}

// Elements counts the elements across all frames.
func (d *Document) Elements() int {
	n := 0
	for _, f := range d.Frames {
		n += countElements(f)
	}
	return n
}

func countElements(e *element.Element) int {
	if e == nil {
		return 0
	}
	n := 1
	for _, c := range e.Children {
		n += countElements(c)
	}
	return n
}

// LoadError represents an error that occurred while loading a document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUnsupported  = "E003" // Unsupported file extension
	ErrCodeParseFailed  = "E004" // YAML, JSON or CUE syntax error
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE evaluation failed
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeNoFrames     = "E008" // Document has an empty frames list
	ErrCodeInvalidTree  = "E101" // Element tree rejected
	ErrCodeRenderFailed = "E201" // Render pass aborted
)

// LoadDocument reads a tree document.
//
// Supported formats are YAML (.yaml, .yml), JSON (.json) and CUE (.cue). A
// document is either a single element tree or a map with one key, frames,
// holding a list of trees rendered one after another:
//
//	frames:
//	  - {type: div, props: {id: A1}}
//	  - {type: div, props: {id: A2}}
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	raw, err := decodeDocument(path, data)
	if err != nil {
		return nil, err
	}

	frames, err := framesOf(raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Frames: make([]*element.Element, 0, len(frames))}
	for i, frame := range frames {
		el, err := element.FromDocument(frame)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidTree, Message: fmt.Sprintf("frame %d: %v", i, err)}
		}
		doc.Frames = append(doc.Frames, el)
	}
	return doc, nil
}

func decodeDocument(path string, data []byte) (any, error) {
	var raw any
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing YAML: %v", err)}
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("parsing JSON: %v", err)}
		}
	case ".cue":
		return decodeCUE(path, data)
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported document extension %q", ext)}
	}
	return raw, nil
}

func decodeCUE(path string, data []byte) (any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeParseFailed, "compiling CUE", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "evaluating CUE", err)
	}

	var raw any
	if err := value.Decode(&raw); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "decoding CUE", err)
	}
	return raw, nil
}

func cueLoadError(code, what string, err error) *LoadError {
	le := &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", what, err)}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}

// framesOf returns the frame list of a decoded document.
func framesOf(raw any) ([]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return []any{raw}, nil
	}
	framesRaw, ok := m["frames"]
	if !ok {
		return []any{raw}, nil
	}
	if len(m) != 1 {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: "a frames document may not have other top-level keys"}
	}
	frames, ok := framesRaw.([]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeInvalidTree, Message: fmt.Sprintf("frames must be a list, got %T", framesRaw)}
	}
	if len(frames) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFrames, Message: "frames list is empty"}
	}
	return frames, nil
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// loadExitCode maps a load failure to an exit code: missing or unreadable
// files are command errors, bad content is a failure.
func loadExitCode(err error) int {
	switch loadErrorCode(err) {
	case ErrCodeNotFound, ErrCodeUnsupported, ErrCodeGeneric:
		return ExitCommandError
	}
	return ExitFailure
}
