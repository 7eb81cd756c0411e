// internal/cssvalue/lexer.go
package cssvalue

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Token is one lexed CSS component value.
type Token struct {
	Type css.TokenType
	Data string
}

func (t Token) IsWhitespace() bool {
	return t.Type == css.WhitespaceToken || t.Type == css.CommentToken
}

// Tokenize lexes a computed style value into tokens.
func Tokenize(value string) []Token {
	l := css.NewLexer(parse.NewInput(strings.NewReader(value)))
	var tokens []Token
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return tokens
		}
		tokens = append(tokens, Token{Type: tt, Data: string(data)})
	}
}

// Function is a top-level function call in a value, such as one layer of a
// background-image list. url() tokens are reported as functions named "url".
type Function struct {
	Name string  // lower-case, without the parenthesis
	Raw  string  // the full source text of the call
	Args []Token // tokens between the parentheses
}

// URL returns the unescaped argument of a url() function.
func (f Function) URL() (string, bool) {
	if f.Name != "url" {
		return "", false
	}
	for _, t := range f.Args {
		switch t.Type {
		case css.StringToken:
			return Unescape(Unquote(t.Data)), true
		case css.URLToken:
			return urlTokenValue(t.Data), true
		}
	}
	// Lexers differ on whether url(foo) yields a single token; fall back to
	// the raw text between the parentheses.
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(f.Raw, f.Name+"("), ")"))
	if inner == "" {
		return "", false
	}
	return Unescape(Unquote(inner)), true
}

// Functions returns every top-level function in value, in declaration order.
// Keywords such as "none" between functions are ignored.
func Functions(value string) []Function {
	tokens := Tokenize(value)
	var fns []Function
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Type {
		case css.URLToken:
			fns = append(fns, Function{
				Name: "url",
				Raw:  t.Data,
				Args: []Token{t},
			})
		case css.FunctionToken:
			end := matchingParen(tokens, i)
			var raw strings.Builder
			for _, tok := range tokens[i:end] {
				raw.WriteString(tok.Data)
			}
			args := innerTokens(tokens, i, end)
			fns = append(fns, Function{
				Name: strings.ToLower(strings.TrimSuffix(t.Data, "(")),
				Raw:  raw.String(),
				Args: args,
			})
			i = end - 1
		}
	}
	return fns
}

// matchingParen returns the index one past the token closing the block opened
// at tokens[start]. Unbalanced input runs to the end.
func matchingParen(tokens []Token, start int) int {
	depth := 0
	for i := start; i < len(tokens); i++ {
		switch tokens[i].Type {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(tokens)
}

// innerTokens returns the tokens between the opening token at start and the
// closing parenthesis ending at end, if there is one.
func innerTokens(tokens []Token, start, end int) []Token {
	inner := tokens[start+1 : end]
	if n := len(inner); n > 0 && inner[n-1].Type == css.RightParenthesisToken {
		inner = inner[:n-1]
	}
	return inner
}

// SplitArgs splits tokens on top-level commas and trims surrounding whitespace
// from each part.
func SplitArgs(tokens []Token) [][]Token {
	var parts [][]Token
	var current []Token
	depth := 0
	for _, t := range tokens {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, trimWhitespace(current))
				current = nil
				continue
			}
		}
		current = append(current, t)
	}
	return append(parts, trimWhitespace(current))
}

// SplitList splits a comma separated computed value (background-repeat,
// background-position-x, ...) into its trimmed items.
func SplitList(value string) []string {
	var items []string
	for _, part := range SplitArgs(Tokenize(value)) {
		items = append(items, Join(part))
	}
	return items
}

// Join concatenates token data back into source text.
func Join(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

func trimWhitespace(tokens []Token) []Token {
	for len(tokens) > 0 && tokens[0].IsWhitespace() {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].IsWhitespace() {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// FirstString returns the unescaped content of the first string token in
// value. Used for the content property of pseudo-elements.
func FirstString(value string) (string, bool) {
	for _, t := range Tokenize(value) {
		if t.Type == css.StringToken {
			return Unescape(Unquote(t.Data)), true
		}
	}
	return "", false
}

// Unquote strips one level of matching single or double quotes.
func Unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Unescape resolves CSS escape sequences: up to six hex digits optionally
// followed by one whitespace character, or a backslash before any other
// character.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(s) && j-i <= 6 && isHex(s[j]) {
			j++
		}
		if j == i+1 {
			// Not a hex escape: keep the next rune verbatim.
			r, size := utf8.DecodeRuneInString(s[j:])
			if r != '\n' {
				sb.WriteRune(r)
			}
			i = j + size - 1
			continue
		}
		cp, err := strconv.ParseUint(s[i+1:j], 16, 32)
		if err != nil || cp == 0 || cp > utf8.MaxRune || (cp >= 0xD800 && cp <= 0xDFFF) {
			cp = utf8.RuneError
		}
		sb.WriteRune(rune(cp))
		if j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n') {
			j++
		}
		i = j - 1
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func urlTokenValue(data string) string {
	inner := data
	if i := strings.IndexByte(inner, '('); i >= 0 {
		inner = inner[i+1:]
	}
	inner = strings.TrimSuffix(inner, ")")
	return Unescape(Unquote(strings.TrimSpace(inner)))
}

var urlIDReference = regexp.MustCompile(`\burl\(\s*["']?#`)

// HasURLReference reports whether value contains a url(#id) reference.
func HasURLReference(value string) bool {
	return urlIDReference.MatchString(value)
}

// RewriteURLReferences prefixes the fragment of every url(#id) reference in
// value, keeping the rest of the text unchanged.
func RewriteURLReferences(value, prefix string) string {
	if !HasURLReference(value) {
		return value
	}
	tokens := Tokenize(value)
	var sb strings.Builder
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		switch {
		case t.Type == css.URLToken:
			sb.WriteString(strings.Replace(t.Data, "#", "#"+prefix, 1))
		case t.Type == css.FunctionToken && strings.EqualFold(t.Data, "url("):
			sb.WriteString(t.Data)
			end := matchingParen(tokens, i)
			replaced := false
			for _, arg := range tokens[i+1 : end] {
				if !replaced && arg.Type == css.StringToken {
					sb.WriteString(strings.Replace(arg.Data, "#", "#"+prefix, 1))
					replaced = true
					continue
				}
				sb.WriteString(arg.Data)
			}
			i = end - 1
		default:
			sb.WriteString(t.Data)
		}
	}
	return sb.String()
}
