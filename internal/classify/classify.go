package classify

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// encryptedPrefix is the sops ciphertext envelope marker.
const encryptedPrefix = "ENC["

// secretSectionKeys are the top-level keys holding secret key/value pairs in
// a Kubernetes Secret manifest.
var secretSectionKeys = []string{"data", "stringData"}

// sopsMetadataKey is the top-level key sops adds after the first encryption
// pass.
const sopsMetadataKey = "sops"

// secretSection pairs a secret section's key name with its value node.
type secretSection struct {
	name string
	node *yaml.Node
}

// File reads and classifies a single manifest file. Multi-document files are
// classified per document and the file takes the most severe result.
func File(path string) FileReport {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileReport{
			Path:   path,
			Class:  Malformed,
			Err:    err,
			Detail: fmt.Sprintf("reading file: %v", err),
		}
	}
	return Bytes(path, data)
}

// Bytes classifies raw manifest content. The path is carried through for
// reporting only.
func Bytes(path string, data []byte) FileReport {
	report := FileReport{Path: path, Class: NotASecret}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return FileReport{
				Path:   path,
				Class:  Malformed,
				Err:    err,
				Detail: fmt.Sprintf("parsing YAML: %v", err),
			}
		}

		class, plaintext := classifyDocument(&doc)
		if MoreSevere(class, report.Class) {
			report.Class = class
		}
		report.PlaintextKeys = append(report.PlaintextKeys, plaintext...)
	}

	if report.Class != PartiallyEncrypted {
		report.PlaintextKeys = nil
	}
	return report
}

// classifyDocument classifies one YAML document. The secret section's extent
// is the mapping node itself, so detection is bound to the section regardless
// of where it appears in the file or how long it is.
func classifyDocument(doc *yaml.Node) (Classification, []string) {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NotASecret, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return NotASecret, nil
	}

	var sections []secretSection
	hasSopsMetadata := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			continue
		}
		for _, name := range secretSectionKeys {
			if key.Value == name {
				sections = append(sections, secretSection{name: name, node: value})
			}
		}
		if key.Value == sopsMetadataKey {
			hasSopsMetadata = true
		}
	}

	if len(sections) == 0 {
		return NotASecret, nil
	}
	if !hasSopsMetadata {
		return NeedsInitialEncryption, nil
	}

	var plaintext []string
	for _, s := range sections {
		if s.node.Kind == yaml.MappingNode {
			plaintext = append(plaintext, plaintextKeys(s.node)...)
			continue
		}
		// A section that is not a mapping (a bare scalar, a sequence) still
		// leaks if any non-empty scalar inside it lacks the envelope. Report
		// the section itself as the offending key.
		if hasPlaintextScalar(s.node) {
			plaintext = append(plaintext, s.name)
		}
	}
	if len(plaintext) > 0 {
		return PartiallyEncrypted, plaintext
	}
	return AlreadyEncrypted, nil
}

// plaintextKeys returns the keys under a secret section whose values are
// non-empty and not wrapped in the ENC[...] envelope. An empty value is an
// empty field, not a leak.
func plaintextKeys(section *yaml.Node) []string {
	if section.Kind != yaml.MappingNode {
		return nil
	}

	var keys []string
	for i := 0; i+1 < len(section.Content); i += 2 {
		key, value := section.Content[i], section.Content[i+1]
		name := key.Value
		if name == "" {
			name = fmt.Sprintf("entry %d", i/2+1)
		}
		if hasPlaintextScalar(value) {
			keys = append(keys, name)
		}
	}
	return keys
}

// hasPlaintextScalar walks a value node and reports whether any non-empty
// scalar inside it lacks the encrypted envelope.
func hasPlaintextScalar(node *yaml.Node) bool {
	switch node.Kind {
	case yaml.ScalarNode:
		v := strings.TrimSpace(node.Value)
		if v == "" {
			return false
		}
		return !strings.HasPrefix(v, encryptedPrefix)
	case yaml.MappingNode:
		for i := 1; i < len(node.Content); i += 2 {
			if hasPlaintextScalar(node.Content[i]) {
				return true
			}
		}
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if hasPlaintextScalar(child) {
				return true
			}
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			return hasPlaintextScalar(node.Alias)
		}
	}
	return false
}
