package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec turns a snapshot into file content and back.
type Codec interface {
	Marshal(snap *Snapshot) ([]byte, error)
	Unmarshal(data []byte, snap *Snapshot) error
}

// jsonDocument is the JSON file layout. Slots are embedded as raw JSON so the
// file stays readable; they are compacted again on load.
type jsonDocument struct {
	Metadata Metadata                   `json:"metadata"`
	Slots    map[string]json.RawMessage `json:"slots"`
}

// JSONCodec stores snapshots as indented JSON.
type JSONCodec struct{}

// Marshal implements Codec.Marshal
func (JSONCodec) Marshal(snap *Snapshot) ([]byte, error) {
	doc := jsonDocument{Metadata: snap.Metadata, Slots: make(map[string]json.RawMessage, len(snap.Slots))}
	for k, v := range snap.Slots {
		if !json.Valid(v) {
			return nil, fmt.Errorf("slot %q does not hold JSON", k)
		}
		doc.Slots[k] = json.RawMessage(v)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal implements Codec.Unmarshal
func (JSONCodec) Unmarshal(data []byte, snap *Snapshot) error {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	snap.Metadata = doc.Metadata
	snap.Slots = make(map[string][]byte, len(doc.Slots))
	for k, v := range doc.Slots {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return fmt.Errorf("slot %q: %w", k, err)
		}
		snap.Slots[k] = buf.Bytes()
	}
	return nil
}

// yamlDocument keeps each slot as its JSON text so payloads round-trip
// exactly.
type yamlDocument struct {
	Metadata Metadata          `yaml:"metadata"`
	Slots    map[string]string `yaml:"slots"`
}

// YAMLCodec stores snapshots as YAML.
type YAMLCodec struct{}

// Marshal implements Codec.Marshal
func (YAMLCodec) Marshal(snap *Snapshot) ([]byte, error) {
	doc := yamlDocument{Metadata: snap.Metadata, Slots: make(map[string]string, len(snap.Slots))}
	for k, v := range snap.Slots {
		doc.Slots[k] = string(v)
	}
	return yaml.Marshal(doc)
}

// Unmarshal implements Codec.Unmarshal
func (YAMLCodec) Unmarshal(data []byte, snap *Snapshot) error {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	snap.Metadata = doc.Metadata
	snap.Slots = make(map[string][]byte, len(doc.Slots))
	for k, v := range doc.Slots {
		snap.Slots[k] = []byte(v)
	}
	return nil
}
