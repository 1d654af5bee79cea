package parsers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	errx "github.com/deckdraft-core/server/internal/core/error"
	logx "github.com/deckdraft-core/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxTolerantLen = 128 * 1024 // 128KB
	maxSalvagePair = 200        // cap on regex-salvaged key/value pairs
)

// keyValuePattern salvages `key: value` pairs from near-JSON text. Keys may
// be unquoted; values are either quoted strings or bare scalars up to the
// next comma, brace or newline.
var keyValuePattern = regexp.MustCompile(
	`"?([A-Za-z_][A-Za-z0-9_\-]*)"?\s*:\s*(?:"((?:[^"\\]|\\.)*)"|([^,}\r\n]+))`)

// fencePattern strips Markdown code fences around a payload.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ParseTolerant turns a possibly-malformed JSON string into an object via
// staged fallback strategies:
//
//  1. direct unmarshal;
//  2. strip Markdown code fences and re-parse;
//  3. parse the substring between the first '{' and the last '}';
//  4. regex-extract key/value pairs and hand-assemble an object, coercing
//     booleans and numeric-looking strings.
//
// A strategy failure falls through to the next strategy, never to the
// caller; the error is a parse failure only after every strategy is
// exhausted. The same parser serves model output wrapped in prose or
// Markdown and hand-typed clarification answers from UI layers.
func ParseTolerant(text string) (result map[string]any, err error) {
	// panic safety: salvage paths operate on arbitrary upstream text
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "tolerant_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("tolerant parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			result = nil
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errx.WrapParse(fmt.Errorf("empty input"))
	}
	if len(text) > maxTolerantLen {
		logx.Warn().
			Str("component", "tolerant_parser").
			Int("max_len", maxTolerantLen).
			Int("orig_len", len(text)).
			Msg("input truncated due to size limit")
		text = text[:maxTolerantLen]
	}

	strategies := []func(string) (map[string]any, bool){
		parseDirect,
		parseFenced,
		parseBraceSpan,
		parseKeyValues,
	}
	for _, strategy := range strategies {
		if m, ok := strategy(text); ok {
			return m, nil
		}
	}

	return nil, errx.WrapParse(fmt.Errorf("all %d parse strategies exhausted", len(strategies)))
}

func parseDirect(text string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func parseFenced(text string) (map[string]any, bool) {
	match := fencePattern.FindStringSubmatch(text)
	if match == nil {
		// Unbalanced fences still show up in model output; drop any fence
		// lines and retry.
		if !strings.Contains(text, "```") {
			return nil, false
		}
		stripped := strings.ReplaceAll(text, "```json", "")
		stripped = strings.ReplaceAll(stripped, "```", "")
		return parseDirect(strings.TrimSpace(stripped))
	}
	return parseDirect(match[1])
}

func parseBraceSpan(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	return parseDirect(text[start : end+1])
}

func parseKeyValues(text string) (map[string]any, bool) {
	matches := keyValuePattern.FindAllStringSubmatch(text, maxSalvagePair)
	if len(matches) == 0 {
		return nil, false
	}

	m := make(map[string]any, len(matches))
	for _, match := range matches {
		key := match[1]
		if match[3] == "" {
			// quoted string value, undo JSON escapes
			if unquoted, err := strconv.Unquote(`"` + match[2] + `"`); err == nil {
				m[key] = unquoted
			} else {
				m[key] = match[2]
			}
			continue
		}
		m[key] = coerceScalar(match[3])
	}
	if len(m) == 0 {
		return nil, false
	}
	return m, true
}

// coerceScalar turns a bare near-JSON scalar into a typed value. Numbers
// decode as float64 to match encoding/json semantics.
func coerceScalar(raw string) any {
	v := strings.TrimSpace(raw)
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return strings.Trim(v, `"'`)
}
