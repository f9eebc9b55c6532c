// Package loader reads bundle documents in YAML, JSON or CUE and builds them
// into a validated CTIM bundle.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// Error code constants.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUnsupported  = "E002" // Unsupported document format
	ErrCodeReadFailed   = "E003" // Document unreadable
	ErrCodeDecodeFailed = "E004" // Document does not decode
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeCUEFailed    = "E006" // CUE evaluation failed

	// Entity errors
	ErrCodeUnknownKind   = "E101" // Unknown or unbuildable entity kind
	ErrCodeInvalidAdd    = "E102" // Invalid add mode
	ErrCodeUnresolved    = "E103" // $ref or from_judgement names no built entity
	ErrCodeDuplicateName = "E104" // Entity name used twice
	ErrCodeDerivation    = "E105" // Invalid from_judgement usage
	ErrCodeInvalid       = "E110" // Entity failed validation
	ErrCodeSession       = "E111" // Document session invalid
)

// LoadError reports a document that could not be read or decoded.
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

// Load reads the document at path, choosing the decoder by extension:
// .yaml and .yml, .json, or .cue.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("error accessing document: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("is a directory: %s", path)}
	}

	var decode func([]byte, string) (*Document, error)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decode = func(data []byte, _ string) (*Document, error) { return LoadYAML(data) }
	case ".json":
		decode = func(data []byte, _ string) (*Document, error) { return LoadJSON(data) }
	case ".cue":
		decode = LoadCUE
	default:
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: fmt.Sprintf("unsupported document extension %q", ext)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading document: %v", err)}
	}
	doc, err := decode(data, path)
	if err != nil {
		return nil, err
	}
	slog.Debug("document loaded", "path", path, "entities", len(doc.Entities))
	return doc, nil
}

// LoadYAML decodes a YAML document. Unknown keys are rejected.
func LoadYAML(data []byte) (*Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("failed to parse YAML: %v", err)}
	}
	return &doc, nil
}

// LoadJSON decodes a JSON document. Unknown keys are rejected and numbers
// keep their literal form until a schema coerces them.
func LoadJSON(data []byte) (*Document, error) {
	var doc Document
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("failed to parse JSON: %v", err)}
	}
	return &doc, nil
}

// LoadCUE evaluates a CUE document. The value must be concrete; filename is
// used in error positions.
func LoadCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, cueLoadError("compiling CUE", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError("validating CUE", err)
	}

	iter, err := value.Fields()
	if err != nil {
		return nil, cueLoadError("reading CUE document", err)
	}
	for iter.Next() {
		switch label := iter.Label(); label {
		case "session", "bundle", "entities":
		default:
			return nil, &LoadError{
				Code:    ErrCodeDecodeFailed,
				Message: fmt.Sprintf("unknown field %q", label),
				Pos:     iter.Value().Pos(),
			}
		}
	}

	var doc Document
	if err := value.Decode(&doc); err != nil {
		return nil, cueLoadError("decoding CUE", err)
	}
	return &doc, nil
}

func cueLoadError(context string, err error) *LoadError {
	le := &LoadError{Code: ErrCodeCUEFailed, Message: fmt.Sprintf("%s: %v", context, err)}
	for _, e := range cueerrors.Errors(err) {
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			le.Pos = positions[0]
			break
		}
	}
	return le
}
