package onnx

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// NodeInfo describes one graph input or output. Shape entries are positive
// integers or strings naming a symbolic dimension.
type NodeInfo struct {
	Name  string `json:"name"`
	DType string `json:"dtype"`
	Shape []any  `json:"shape"`
}

// Session describes a graph on disk and its expected inputs and outputs.
type Session struct {
	Name string
	Path string

	Inputs  []NodeInfo
	Outputs []NodeInfo
}

// NewSession resolves path and checks that it names a regular file.
func NewSession(name, path string, inputs, outputs []NodeInfo) (Session, error) {
	if name == "" {
		return Session{}, errors.New("session name is required")
	}
	if path == "" {
		return Session{}, fmt.Errorf("session %q: path is required", name)
	}

	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return Session{}, fmt.Errorf("session file for %q: %w", name, err)
	}
	if info.IsDir() {
		return Session{}, fmt.Errorf("session file for %q: %s is a directory", name, path)
	}

	slog.Debug(
		"resolved ONNX session",
		"name", name,
		"path", path,
		"inputs", nodeNames(inputs),
		"outputs", nodeNames(outputs),
	)

	return Session{
		Name:    name,
		Path:    path,
		Inputs:  append([]NodeInfo(nil), inputs...),
		Outputs: append([]NodeInfo(nil), outputs...),
	}, nil
}

func nodeNames(nodes []NodeInfo) string {
	if len(nodes) == 0 {
		return ""
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}

	return strings.Join(names, ",")
}
