package persist

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Codec encodes values for a Backend.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

var (
	// JSON is the default codec.
	JSON Codec = jsonCodec{}
	// YAML encodes values as YAML documents.
	YAML Codec = yamlCodec{}
)

// CodecByName returns the codec called name, or nil.
func CodecByName(name string) Codec {
	switch name {
	case "", "json":
		return JSON
	case "yaml", "yml":
		return YAML
	}
	return nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string                               { return "json" }
func (jsonCodec) Marshal(v interface{}) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v interface{}) error { return json.Unmarshal(data, v) }

type yamlCodec struct{}

func (yamlCodec) Name() string                               { return "yaml" }
func (yamlCodec) Marshal(v interface{}) ([]byte, error)      { return yaml.Marshal(v) }
func (yamlCodec) Unmarshal(data []byte, v interface{}) error { return yaml.Unmarshal(data, v) }
