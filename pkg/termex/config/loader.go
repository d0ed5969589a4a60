package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cognicore/termex/pkg/termex"
	"github.com/cognicore/termex/pkg/termex/annotate"
	"github.com/cognicore/termex/pkg/termex/annotate/lexicon"
	"github.com/cognicore/termex/pkg/termex/annotate/prose"
	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/rank"
)

// Components holds the runtime objects built from a Config.
type Components struct {
	Annotator annotate.Annotator
	Extractor *termex.Extractor
	Sort      rank.Direction
}

// Build constructs the annotator and extractor described by c.
func (c *Config) Build(log *zerolog.Logger) (*Components, error) {
	comp := &Components{}

	switch c.Annotator {
	case "lexicon":
		lex, err := lexicon.LoadFromYAML(c.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Annotator = lexicon.NewAnnotator(lex)
	case "prose", "":
		comp.Annotator = prose.New()
	default:
		return nil, fmt.Errorf("%w: unknown annotator %q", internalerr.ErrInvalidConfig, c.Annotator)
	}

	dir, ok := rank.ParseDirection(c.Sort)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort direction %q", internalerr.ErrInvalidConfig, c.Sort)
	}
	comp.Sort = dir

	comp.Extractor = termex.New(termex.Options{
		Annotator:   comp.Annotator,
		Concurrency: c.Concurrency,
		ContextCap:  c.ContextCap,
		Logger:      log,
	})
	return comp, nil
}

// Request returns an extraction request for text using c's limits.
func (c *Config) Request(text string) termex.Request {
	req := termex.NewRequest(text)
	req.MaxChunkSize = c.MaxChunkSize
	req.MinFrequency = c.MinFrequency
	return req
}
