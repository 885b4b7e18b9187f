// Package dictionary loads the bidirectional English/Yoruba word table the
// boards are dealt from. The table is built once at startup and is read-only
// afterwards.
package dictionary

import (
	"bufio"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
)

// Pair is a single English word and its Yoruba translation.
type Pair struct {
	English string
	Yoruba  string
}

// Dictionary is an immutable translation table partitioned into named
// categories. Every pair appears in exactly one category and in both lookup
// directions.
type Dictionary struct {
	englishToYoruba map[string]string
	yorubaToEnglish map[string]string
	byCategory      map[string][]Pair
	categories      []string
}

// Load parses every file in fsys. Line 1 of a file names the category, the
// remaining lines hold "english,yoruba" pairs. The Yoruba side may use the
// bracket diacritic notation expanded by EncodeYoruba. Entries with an empty
// side are skipped; unreadable input fails the whole load.
func Load(fsys fs.FS) (*Dictionary, error) {
	d := &Dictionary{
		englishToYoruba: make(map[string]string),
		yorubaToEnglish: make(map[string]string),
		byCategory:      make(map[string][]Pair),
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("dictionary: reading word directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := d.loadFile(fsys, entry.Name()); err != nil {
			return nil, err
		}
	}

	if len(d.byCategory) == 0 {
		return nil, fmt.Errorf("dictionary: no categories loaded")
	}
	return d, nil
}

func (d *Dictionary) loadFile(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("dictionary: opening %s: %w", name, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("dictionary: reading %s: %w", name, err)
		}
		return fmt.Errorf("dictionary: %s is empty", name)
	}
	category := strings.TrimSpace(scanner.Text())
	if category == "" {
		return fmt.Errorf("dictionary: %s has no category name", name)
	}

	var words []Pair
	for scanner.Scan() {
		english, rest, _ := strings.Cut(scanner.Text(), ",")
		yoruba := EncodeYoruba(rest)
		if english == "" || yoruba == "" {
			continue
		}
		d.englishToYoruba[english] = yoruba
		d.yorubaToEnglish[yoruba] = english
		words = append(words, Pair{English: english, Yoruba: yoruba})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("dictionary: reading %s: %w", name, err)
	}

	d.byCategory[category] = words
	d.categories = append(d.categories, category)
	return nil
}

// Lookup returns the translation of word in either direction.
func (d *Dictionary) Lookup(word string) (string, bool) {
	if t, ok := d.englishToYoruba[word]; ok {
		return t, true
	}
	t, ok := d.yorubaToEnglish[word]
	return t, ok
}

// English returns the English side of a Yoruba word.
func (d *Dictionary) English(yoruba string) (string, bool) {
	t, ok := d.yorubaToEnglish[yoruba]
	return t, ok
}

// IsPair reports whether a and b translate to each other, checked in both
// directions.
func (d *Dictionary) IsPair(a, b string) bool {
	return a == d.englishToYoruba[b] || a == d.yorubaToEnglish[b]
}

// WordsOf returns the ordered pairs of a category.
func (d *Dictionary) WordsOf(category string) []Pair {
	return d.byCategory[category]
}

// Categories returns the category names in load order.
func (d *Dictionary) Categories() []string {
	out := make([]string, len(d.categories))
	copy(out, d.categories)
	return out
}

// Len is the number of translation pairs loaded.
func (d *Dictionary) Len() int {
	return len(d.englishToYoruba)
}

// HasCategory reports whether category exists.
func (d *Dictionary) HasCategory(category string) bool {
	_, ok := d.byCategory[category]
	return ok
}

var bracketCode = regexp.MustCompile(`\[.*?]`)

// EncodeYoruba expands the bracket diacritic notation used in the word files
// into display form. "[.E']" marks a dotted base letter with an acute accent
// and becomes "&#7864;&#x0301;"; non-dotted codes become named entities such
// as "&eacute;".
func EncodeYoruba(word string) string {
	if word == "" {
		return ""
	}
	return bracketCode.ReplaceAllStringFunc(word, convertCode)
}

var dottedEntities = map[byte]string{
	'E': "&#7864;", 'e': "&#7865;",
	'O': "&#7884;", 'o': "&#7885;",
	'S': "&#7778;", 's': "&#7779;",
	'I': "&#7882;", 'i': "&#7883;",
	'U': "&#7908;", 'u': "&#7909;",
	'A': "&#7840;", 'a': "&#7841;",
}

// convertCode translates one bracket group, brackets included. Position 1 is
// the dot marker, position 2 the base letter, position 3 (only read when the
// group is longer than 4 bytes) the accent.
func convertCode(code string) string {
	dot := len(code) > 1 && code[1] == '.'
	var base byte
	if len(code) > 2 {
		base = code[2]
	}
	accent := byte('_')
	if len(code) > 4 {
		accent = code[3]
	}
	switch {
	case strings.IndexByte(`+uU'^`, accent) >= 0:
		accent = '+'
	case strings.IndexByte("-dD`v", accent) >= 0:
		accent = '-'
	default:
		accent = '_'
	}

	var ret string
	if dot {
		if entity, ok := dottedEntities[base]; ok {
			ret = entity
		} else {
			ret = string(base) + "&#803;"
		}
		switch accent {
		case '+':
			ret += "&#x0301;"
		case '-':
			ret += "&#x0300;"
		}
	} else {
		ret = "&" + string(base)
		switch accent {
		case '+':
			ret += "acute;"
		case '-':
			ret += "grave;"
		default:
			ret += ";"
		}
	}
	return ret
}
