package blockie

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	yamlv3 "go.yaml.in/yaml/v3"
)

// GrammarConfig is the file form of a Grammar. Tag generators are written as
// patterns containing {name}; empty fields keep their defaults.
type GrammarConfig struct {
	TagGenVar      string `json:"tag_gen_var"`
	TagGenBlkStart string `json:"tag_gen_blk_start"`
	TagGenBlkEnd   string `json:"tag_gen_blk_end"`
	TagGenBlkVari  string `json:"tag_gen_blk_vari"`
	AutotagAlign   string `json:"autotag_align"`
	AutotagVari    string `json:"autotag_vari"`
	TabSize        int    `json:"tab_size"`
}

// DefaultGrammarConfig returns the configuration of the default grammar.
func DefaultGrammarConfig() *GrammarConfig {
	return &GrammarConfig{
		TagGenVar:      "<{name}>",
		TagGenBlkStart: "<{name}>",
		TagGenBlkEnd:   "</{name}>",
		TagGenBlkVari:  "<^{name}>",
		AutotagAlign:   DefaultAutotagAlign,
		AutotagVari:    DefaultAutotagVariant,
		TabSize:        DefaultTabSize,
	}
}

// Grammar builds and validates the grammar described by the configuration.
func (c *GrammarConfig) Grammar() (*Grammar, error) {
	g, err := PatternGrammar(c.TagGenVar, c.TagGenBlkStart, c.TagGenBlkEnd, c.TagGenBlkVari)
	if err != nil {
		return nil, err
	}
	g.AutotagAlign = c.AutotagAlign
	g.AutotagVariant = c.AutotagVari
	g.TabSize = c.TabSize
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ParseGrammarConfig decodes a grammar configuration from YAML, or JSON when
// path ends in .json. Fields missing from the document keep their defaults.
func ParseGrammarConfig(path string, content []byte) (*GrammarConfig, error) {
	raw, err := parseConfigBytes(path, content)
	if err != nil {
		return nil, fmt.Errorf("parse grammar config: %w", err)
	}

	cfg := DefaultGrammarConfig()
	if err := decodeConfigMap(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode grammar config: %w", err)
	}
	return cfg, nil
}

// LoadGrammarConfig reads a grammar configuration file.
func LoadGrammarConfig(path string) (*GrammarConfig, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar config: %w", err)
	}
	return ParseGrammarConfig(path, content)
}

// LoadGrammar reads a grammar configuration file and builds its grammar.
func LoadGrammar(path string) (*Grammar, error) {
	cfg, err := LoadGrammarConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.Grammar()
}

// ParseDataBytes decodes fill data from YAML, or JSON when path ends in .json.
func ParseDataBytes(path string, content []byte) (Value, error) {
	var raw any
	var err error
	if isJSONPath(path) {
		err = json.Unmarshal(content, &raw)
	} else {
		err = yamlv3.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse data: %w", err)
	}
	return FromGo(normalizeMapKeys(raw))
}

func parseConfigBytes(path string, content []byte) (map[string]any, error) {
	var raw any
	var err error
	if isJSONPath(path) {
		err = json.Unmarshal(content, &raw)
	} else {
		err = yamlv3.Unmarshal(content, &raw)
	}
	if err != nil {
		return nil, err
	}

	normalized := normalizeMapKeys(raw)
	if normalized == nil {
		return map[string]any{}, nil
	}
	configMap, ok := normalized.(map[string]any)
	if !ok {
		return nil, errors.New("config root must be object")
	}
	return configMap, nil
}

func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// normalizeMapKeys turns the map[any]any values some decoders produce into
// map[string]any.
func normalizeMapKeys(val any) any {
	switch typed := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = normalizeMapKeys(value)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[fmt.Sprintf("%v", key)] = normalizeMapKeys(value)
		}
		return out
	case []any:
		for i := range typed {
			typed[i] = normalizeMapKeys(typed[i])
		}
		return typed
	default:
		return val
	}
}

func decodeConfigMap(data map[string]any, out any) error {
	conf := &mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "json",
		ErrorUnused:      true,
	}
	decoder, err := mapstructure.NewDecoder(conf)
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}
