package moderation

import (
	"bufio"
	"bytes"
	"chat-guard/errors"
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/samber/lo"
)

//go:embed censored/*.txt
var defaultDictionary embed.FS

// Dictionary is the list of censored words and the languages it was built from.
type Dictionary struct {
	Words     []string
	Languages []string
}

// DictionaryLoader reads one "<lang>.txt" file per language, one word per line.
type DictionaryLoader struct {
	fs fs.FS
}

func NewDictionaryLoader(f fs.FS) *DictionaryLoader {
	return &DictionaryLoader{fs: f}
}

// DefaultDictionaryLoader reads the dictionaries shipped with the binary.
func DefaultDictionaryLoader() (*DictionaryLoader, string) {
	return NewDictionaryLoader(defaultDictionary), "censored"
}

// LoadAll parses every .txt file of dir into a list of unique words.
func (l *DictionaryLoader) LoadAll(dir string) (Dictionary, error) {
	entries, err := fs.ReadDir(l.fs, dir)
	if err != nil {
		return Dictionary{}, err
	}

	var languages, words []string
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".txt" {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(l.fs, path.Join(dir, entry.Name()))
		if err != nil {
			return Dictionary{}, err
		}

		// Scanner handles both \n and \r\n
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				words = append(words, line)
			}
		}
		if err = scanner.Err(); err != nil {
			return Dictionary{}, err
		}
	}

	words = lo.Uniq(words)
	if len(words) == 0 {
		return Dictionary{}, errors.ErrEmptyWords
	}
	return Dictionary{Words: words, Languages: languages}, nil
}

// MergeWords adds extra words, typically from configuration, without duplicates.
func (d Dictionary) MergeWords(extra ...string) Dictionary {
	cleaned := lo.FilterMap(extra, func(w string, _ int) (string, bool) {
		w = strings.TrimSpace(w)
		return w, w != ""
	})
	return Dictionary{Words: lo.Uniq(append(append([]string{}, d.Words...), cleaned...)), Languages: d.Languages}
}
