// Package logterm renders the logterm (https://github.com/architect-xyz/logterm)
// configuration for services with the log extension.
package logterm

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Write renders logDirs as a logsets mapping, each service pointing to the
// current file of its log directory. Entries are sorted by service name.
func Write(w io.Writer, logDirs map[string]string) error {
	sets := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range slices.Sorted(maps.Keys(logDirs)) {
		sets.Content = append(sets.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: strings.TrimSuffix(logDirs[name], "/") + "/current"},
		)
	}
	doc := &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "logsets"},
			sets,
		},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes the configuration to path, creating the parent directory.
func WriteFile(path string, logDirs map[string]string) error {
	var buf bytes.Buffer
	if err := Write(&buf, logDirs); err != nil {
		return fmt.Errorf("rendering logterm config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
