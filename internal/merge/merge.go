// Package merge reconciles an incoming identity document against the stored
// one with PATCH semantics over multi-locale attribute lists: new locales are
// added, fields of existing locales are overlaid from the incoming entry, and
// locales the incoming request is silent about are retained untouched.
package merge

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"idrepo/internal/apperror"
)

const languageField = "language"

// Entry is one language-tagged value object within a multi-locale attribute
// list, e.g. {"language":"en","value":"John"}.
type Entry map[string]string

// Documents merges the incoming document into the stored one and returns the
// new canonical document bytes. Both inputs must be JSON objects mapping
// attribute names to values. The output is deterministic: the same two inputs
// always yield byte-identical bytes (object keys and locale entries are
// emitted in sorted order).
func Documents(stored, incoming []byte) ([]byte, error) {
	storedAttrs, err := decodeAttrs(stored)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "stored document is not a JSON object", err)
	}
	incomingAttrs, err := decodeAttrs(incoming)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "incoming document is not a JSON object", err)
	}

	out := make(map[string]json.RawMessage, len(storedAttrs)+len(incomingAttrs))
	for name, raw := range storedAttrs {
		out[name] = raw
	}
	for name, in := range incomingAttrs {
		st, ok := storedAttrs[name]
		if !ok || bytes.Equal(st, in) {
			if !ok {
				out[name] = in
			}
			continue
		}
		merged, err := mergeAttribute(name, st, in)
		if err != nil {
			return nil, err
		}
		out[name] = merged
	}

	// encoding/json emits map keys sorted, which gives the required stable
	// output order for attribute names.
	res, err := json.Marshal(out)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "encode merged document", err)
	}
	return res, nil
}

func decodeAttrs(doc []byte) (map[string]json.RawMessage, error) {
	attrs := map[string]json.RawMessage{}
	if len(doc) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(doc, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// mergeAttribute reconciles one attribute present on both sides. Attributes
// that are not localized entry lists (document descriptors and other plain
// objects) are replaced wholesale by the incoming value.
func mergeAttribute(name string, stored, incoming json.RawMessage) (json.RawMessage, error) {
	var storedEntries, incomingEntries []Entry
	if json.Unmarshal(stored, &storedEntries) != nil || json.Unmarshal(incoming, &incomingEntries) != nil {
		return incoming, nil
	}

	storedByLang, err := indexByLanguage(name, storedEntries)
	if err != nil {
		return nil, err
	}
	incomingByLang, err := indexByLanguage(name, incomingEntries)
	if err != nil {
		return nil, err
	}

	merged := make([]Entry, 0, len(storedByLang)+len(incomingByLang))
	for lang, st := range storedByLang {
		if in, ok := incomingByLang[lang]; ok {
			merged = append(merged, overlay(st, in))
		} else {
			merged = append(merged, st)
		}
	}
	for lang, in := range incomingByLang {
		if _, ok := storedByLang[lang]; !ok {
			merged = append(merged, in)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		return strings.ToLower(merged[i][languageField]) < strings.ToLower(merged[j][languageField])
	})

	res, err := json.Marshal(merged)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidInput, "encode merged attribute", err)
	}
	return res, nil
}

// indexByLanguage keys entries by their language code, case-insensitively.
// Duplicate language codes within one attribute would make pairing ambiguous
// and are rejected as invalid input.
func indexByLanguage(name string, entries []Entry) (map[string]Entry, error) {
	byLang := make(map[string]Entry, len(entries))
	for _, e := range entries {
		lang := strings.ToLower(e[languageField])
		if _, dup := byLang[lang]; dup {
			return nil, apperror.Newf(apperror.KindInvalidInput,
				"attribute %q has duplicate entries for language %q", name, e[languageField])
		}
		byLang[lang] = e
	}
	return byLang, nil
}

// overlay copies the stored entry and overwrites every field the incoming
// entry sets to a different value. The language code of the stored entry is
// never altered.
func overlay(stored, incoming Entry) Entry {
	out := make(Entry, len(stored))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range incoming {
		if k == languageField {
			continue
		}
		if out[k] != v {
			out[k] = v
		}
	}
	return out
}
