package parse

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/utapyngo/code-analyzer/internal/guard"
	"github.com/utapyngo/code-analyzer/internal/lang"
)

// ErrUnsupportedLanguage is returned when no grammar exists for a language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// lockedParser is one reused parser. The lock is held only while parsing.
type lockedParser struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// ParserCache keeps one parser per language. Building a parser is not free,
// so instances are reused across files; the map lock is held only for the
// lookup/insert, never while parsing.
type ParserCache struct {
	parsers *guard.Value[map[string]*lockedParser]
}

// NewParserCache creates an empty parser cache.
func NewParserCache() *ParserCache {
	return &ParserCache{
		parsers: guard.New(map[string]*lockedParser{}, func(m *map[string]*lockedParser) {
			*m = map[string]*lockedParser{}
		}),
	}
}

// get returns the cached parser for language, creating it on first use.
func (c *ParserCache) get(language string) (*lockedParser, error) {
	l, ok := lang.Lookup(language)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	var lp *lockedParser
	c.parsers.Do(func(m *map[string]*lockedParser) {
		lp = (*m)[l.Name]
		if lp == nil {
			lp = &lockedParser{parser: l.NewParser()}
			(*m)[l.Name] = lp
		}
	})
	return lp, nil
}

// Parse parses source as language and returns the syntax tree. The caller
// must Close the tree.
func (c *ParserCache) Parse(source []byte, language string) (*sitter.Tree, error) {
	lp, err := c.get(language)
	if err != nil {
		return nil, err
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()

	tree, err := lp.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing as %s: %w", language, err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parsing as %s: no tree produced", language)
	}
	return tree, nil
}
