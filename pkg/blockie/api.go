package blockie

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Engine provides the main API for working with templates.
// Use NewEngine() to create a new engine instance.
type Engine struct {
	config  *Config
	cache   *TemplateCache
	grammar *Grammar
}

// NewEngine creates a new template engine with the given options.
func NewEngine(opts ...Option) *Engine {
	config := *GetGlobalConfig()
	engine := &Engine{
		config: &config,
		cache:  defaultCache,
	}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.grammar == nil {
		engine.grammar = DefaultGrammar()
		engine.grammar.TabSize = engine.config.TabSize
	}
	return engine
}

// Option represents a configuration option for the engine.
type Option func(*Engine)

// WithConfig returns an option that sets the engine configuration. The
// engine gets its own cache sized by the configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
		e.cache = NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: config.CacheMaxSize,
			TTL:     config.CacheTTL,
		})
	}
}

// WithGrammar returns an option that sets the tag grammar.
func WithGrammar(grammar *Grammar) Option {
	return func(e *Engine) {
		e.grammar = grammar
	}
}

// WithCache returns an option that gives the engine its own cache of the given
// size (0 disables caching).
func WithCache(maxSize int) Option {
	return func(e *Engine) {
		e.config.CacheMaxSize = maxSize
		e.cache = NewTemplateCacheWithConfig(CacheConfig{
			MaxSize: maxSize,
			TTL:     e.config.CacheTTL,
		})
	}
}

// WithStrictMode returns an option that turns unknown data keys into errors.
func WithStrictMode(strict bool) Option {
	return func(e *Engine) {
		e.config.StrictMode = strict
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Grammar returns the engine's tag grammar.
func (e *Engine) Grammar() *Grammar {
	return e.grammar
}

// Parse parses a template, reusing a cached parse of the same source and grammar.
func (e *Engine) Parse(src string) (*Template, error) {
	if e.config.CacheMaxSize == 0 || e.cache == nil {
		return Parse(src, e.grammar)
	}
	return e.cache.GetOrParse(e.cacheKey(src), func() (*Template, error) {
		return Parse(src, e.grammar)
	})
}

// ParseFile loads and parses a template file. The template is cached by path
// if caching is enabled in the configuration.
func (e *Engine) ParseFile(path string) (*Template, error) {
	load := func() (*Template, error) {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file: %w", err)
		}
		return Parse(string(content), e.grammar)
	}
	if e.config.CacheMaxSize == 0 || e.cache == nil {
		return load()
	}
	return e.cache.GetOrParse("file:"+path+"\x00"+e.grammar.Fingerprint(), load)
}

func (e *Engine) cacheKey(src string) string {
	sum := sha256.Sum256([]byte(e.grammar.Fingerprint() + "\x00" + src))
	return hex.EncodeToString(sum[:])
}

// New parses a template and returns the handle of its root block.
func (e *Engine) New(src string) (*Block, error) {
	tmpl, err := e.Parse(src)
	if err != nil {
		return nil, err
	}
	return e.NewBlock(tmpl), nil
}

// NewBlock returns a root handle for a parsed template using the engine's
// strictness.
func (e *Engine) NewBlock(tmpl *Template) *Block {
	return newBlock(tmpl, e.config.StrictMode)
}

// Render parses a template, fills it with data and returns the content.
func (e *Engine) Render(src string, data any) (string, error) {
	blk, err := e.New(src)
	if err != nil {
		return "", err
	}
	GetLogger().DebugTemplate(src, data)
	if err := blk.Fill(data); err != nil {
		return "", err
	}
	return blk.Content()
}

// ClearCache removes all templates from the cache.
func (e *Engine) ClearCache() {
	if e.cache != nil {
		e.cache.Clear()
	}
}

// DefaultEngine returns an engine built from the global configuration.
func DefaultEngine() *Engine {
	return NewEngine()
}

// Module-level convenience functions that use a default engine.

// New parses a template with the default grammar and returns its root block.
func New(src string, opts ...Option) (*Block, error) {
	return NewEngine(opts...).New(src)
}

// Render parses a template, fills it with data and returns the content.
func Render(src string, data any, opts ...Option) (string, error) {
	return NewEngine(opts...).Render(src, data)
}

// ClearCache clears the global template cache.
func ClearCache() {
	defaultCache.Clear()
}
