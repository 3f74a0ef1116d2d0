package decl

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowscope/pkg/errors"
)

// Document formats accepted by [Parse].
const (
	FormatTOML = "toml"
	FormatJSON = "json"
)

// Document is the structured pipeline declaration as authored.
type Document struct {
	Main   string      `toml:"main" json:"main"`
	Nodes  []NodeDecl  `toml:"nodes" json:"nodes,omitempty"`
	Graphs []GraphDecl `toml:"graphs" json:"graphs,omitempty"`
}

// NodeDecl declares a node. Ty names either a primitive node kind or another
// declared graph, in which case the node is a subgraph instance.
type NodeDecl struct {
	Name string `toml:"name" json:"name"`
	Ty   string `toml:"ty" json:"ty"`
}

// GraphDecl declares a composite graph.
type GraphDecl struct {
	Name        string       `toml:"name" json:"name"`
	Nodes       []NodeDecl   `toml:"nodes" json:"nodes,omitempty"`
	Inputs      []PortGroup  `toml:"inputs" json:"inputs,omitempty"`
	Outputs     []PortGroup  `toml:"outputs" json:"outputs,omitempty"`
	Connections []Connection `toml:"connections" json:"connections,omitempty"`
}

// PortGroup is a named graph boundary. Ports are "entity:port" references.
type PortGroup struct {
	Name  string   `toml:"name" json:"name"`
	Cap   int      `toml:"cap" json:"cap,omitempty"`
	Ports []string `toml:"ports" json:"ports"`
}

// Connection wires every listed port together. Arity may exceed two.
type Connection struct {
	Cap   int      `toml:"cap" json:"cap,omitempty"`
	Ports []string `toml:"ports" json:"ports"`
}

// SyntaxError is a document syntax error reported by the deserializer.
// Unlike compilation errors it carries a source position.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Line, e.Column)
	}
	return e.Message
}

// Parse decodes a document in the given format ("toml" or "json").
// An empty format defaults to TOML.
func Parse(data []byte, format string) (Document, error) {
	var doc Document
	switch strings.ToLower(format) {
	case "", FormatTOML:
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidDocument, tomlSyntaxError(data, err), "parse document")
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidDocument, jsonSyntaxError(data, err), "parse document")
		}
	default:
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported document format: %s", format)
	}
	return doc, nil
}

// ParseFile reads and decodes a document, inferring the format from the
// file extension (".json" is JSON, anything else TOML).
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, FormatFromPath(path))
}

// FormatFromPath returns the document format implied by a file name.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatTOML
}

func tomlSyntaxError(data []byte, err error) error {
	var perr toml.ParseError
	if !stderrors.As(err, &perr) {
		return &SyntaxError{Message: err.Error()}
	}
	line, col := position(data, perr.Position.Start)
	return &SyntaxError{Line: line, Column: col, Message: perr.Message}
}

func jsonSyntaxError(data []byte, err error) error {
	var serr *json.SyntaxError
	if stderrors.As(err, &serr) {
		line, col := position(data, int(serr.Offset))
		return &SyntaxError{Line: line, Column: col, Message: serr.Error()}
	}
	var terr *json.UnmarshalTypeError
	if stderrors.As(err, &terr) {
		line, col := position(data, int(terr.Offset))
		return &SyntaxError{Line: line, Column: col, Message: terr.Error()}
	}
	return &SyntaxError{Message: err.Error()}
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int) (line, col int) {
	if offset > len(data) {
		offset = len(data)
	}
	if offset < 0 {
		offset = 0
	}
	head := data[:offset]
	line = bytes.Count(head, []byte("\n")) + 1
	col = offset - bytes.LastIndexByte(head, '\n')
	return line, col
}
