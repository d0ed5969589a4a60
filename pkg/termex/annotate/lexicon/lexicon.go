package lexicon

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/termex/pkg/termex/annotate"
)

// Lexicon maps lower-cased words and word endings to POS tags.
//
// Lookup order for a word is: explicit entries, built-in function words,
// suffix rules (longest suffix first). Words matching none of them get the
// default tag.
type Lexicon struct {
	words      map[string]annotate.Tag
	suffixes   []suffixRule // sorted longest first
	defaultTag annotate.Tag
}

type suffixRule struct {
	suffix string
	tag    annotate.Tag
}

// functionWords are closed-class English words tagged without configuration.
var functionWords = map[annotate.Tag][]string{
	annotate.DET: {
		"a", "an", "the", "this", "that", "these", "those", "each", "every",
		"some", "any", "no", "another", "such", "all", "both",
	},
	annotate.ADP: {
		"of", "in", "on", "at", "by", "for", "with", "from", "to", "into",
		"over", "under", "about", "between", "through", "during", "after",
		"before", "without", "within", "across", "against", "among", "per", "via",
	},
	annotate.PRON: {
		"i", "you", "he", "she", "it", "we", "they", "me", "him", "her", "us",
		"them", "my", "your", "his", "its", "our", "their", "who", "whom",
		"which", "what", "itself", "themselves",
	},
	annotate.CCONJ: {"and", "or", "but", "nor", "yet"},
	annotate.SCONJ: {"if", "because", "while", "although", "though", "unless", "whether", "since"},
	annotate.AUX: {
		"is", "are", "was", "were", "be", "been", "being", "am", "has", "have",
		"had", "do", "does", "did", "will", "would", "can", "could", "should",
		"may", "might", "must", "shall",
	},
	annotate.PART: {"not", "n't"},
	annotate.ADV:  {"very", "also", "just", "then", "too", "only", "more", "most", "so", "there", "here"},
}

var functionTags = func() map[string]annotate.Tag {
	m := make(map[string]annotate.Tag)
	for tag, words := range functionWords {
		for _, w := range words {
			m[w] = tag
		}
	}
	return m
}()

// New creates a lexicon with NOUN as the default tag.
func New() *Lexicon {
	return &Lexicon{
		words:      make(map[string]annotate.Tag),
		defaultTag: annotate.NOUN,
	}
}

// Add tags a word. Later additions override earlier ones.
func (l *Lexicon) Add(word string, tag annotate.Tag) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	l.words[word] = tag
}

// AddSuffix tags unknown words ending in suffix.
func (l *Lexicon) AddSuffix(suffix string, tag annotate.Tag) {
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	if suffix == "" {
		return
	}
	l.suffixes = append(l.suffixes, suffixRule{suffix: suffix, tag: tag})
	sort.SliceStable(l.suffixes, func(i, j int) bool {
		return len(l.suffixes[i].suffix) > len(l.suffixes[j].suffix)
	})
}

// SetDefault sets the tag given to words the lexicon knows nothing about.
func (l *Lexicon) SetDefault(tag annotate.Tag) {
	l.defaultTag = tag
}

// Default returns the fallback tag.
func (l *Lexicon) Default() annotate.Tag {
	return l.defaultTag
}

// Known returns the tag of an explicit entry or function word.
func (l *Lexicon) Known(word string) (annotate.Tag, bool) {
	word = strings.ToLower(word)
	if tag, ok := l.words[word]; ok {
		return tag, true
	}
	tag, ok := functionTags[word]
	return tag, ok
}

// Suffix returns the tag of the longest matching suffix rule. The rule only
// applies when the word is longer than the suffix itself.
func (l *Lexicon) Suffix(word string) (annotate.Tag, bool) {
	word = strings.ToLower(word)
	for _, r := range l.suffixes {
		if len(word) > len(r.suffix) && strings.HasSuffix(word, r.suffix) {
			return r.tag, true
		}
	}
	return "", false
}

// Size returns the number of explicit word entries.
func (l *Lexicon) Size() int {
	return len(l.words)
}

// file is the YAML layout of a tag lexicon:
//
//	default: NOUN
//	tags:
//	  ADJ: [quick, brown]
//	  VERB: [jumps]
//	suffixes:
//	  ADJ: [ous, ful, ive]
//	  VERB: [ing, ed]
type file struct {
	Default  string              `yaml:"default"`
	Tags     map[string][]string `yaml:"tags"`
	Suffixes map[string][]string `yaml:"suffixes"`
}

// LoadFromYAML reads a tag lexicon file.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML tag lexicon.
func Parse(data []byte) (*Lexicon, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	lex := New()
	if f.Default != "" {
		tag, ok := annotate.ParseTag(f.Default)
		if !ok {
			return nil, fmt.Errorf("unknown default tag %q", f.Default)
		}
		lex.SetDefault(tag)
	}

	// Sorted so that a word listed under two tags resolves the same way on
	// every load.
	for _, name := range sortedKeys(f.Tags) {
		tag, ok := annotate.ParseTag(name)
		if !ok {
			return nil, fmt.Errorf("unknown tag %q", name)
		}
		for _, w := range f.Tags[name] {
			lex.Add(w, tag)
		}
	}
	for _, name := range sortedKeys(f.Suffixes) {
		tag, ok := annotate.ParseTag(name)
		if !ok {
			return nil, fmt.Errorf("unknown suffix tag %q", name)
		}
		for _, s := range f.Suffixes[name] {
			lex.AddSuffix(s, tag)
		}
	}
	return lex, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
