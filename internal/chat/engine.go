package chat

import (
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Engine picks a reply for a message by walking an ordered rule table; the
// first rule that matches decides. It holds no conversation state, so one
// Engine may serve any number of goroutines.
type Engine struct {
	rules []rule
	intn  func(n int) int
	now   func() time.Time
}

type Option func(*Engine)

// WithRandom replaces the source used by rules that pick at random.
// intn must return a value in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(e *Engine) { e.intn = intn }
}

// WithClock replaces the wall clock used by the date and time rule.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules: supportRules,
		intn:  rand.IntN,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Respond returns the reply for message. It never fails: a message no rule
// matches falls through to a clarification request.
func (e *Engine) Respond(message string, c Context) string {
	reply, _ := e.Evaluate(message, c)
	return reply
}

// Evaluate is Respond that also names the rule that produced the reply.
func (e *Engine) Evaluate(message string, c Context) (reply, ruleName string) {
	in := newInput(message, c)

	for _, r := range e.rules {
		if reply, ok := r.apply(e, in); ok {
			return reply, r.name
		}
	}

	return e.fallback(in)
}

func (e *Engine) fallback(in input) (string, string) {
	prior := strings.TrimSpace(in.ctx.LastUserUtterance)
	if prior != "" && prior != in.text {
		return fmtClarify(prior), "fallback_memory"
	}
	return replyDefault, "fallback"
}

func (e *Engine) pick(n int) int {
	i := e.intn(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// input is the normalized message every rule sees.
type input struct {
	raw   string   // trimmed, original case
	text  string   // lowercased and trimmed
	words []string // text split into words, punctuation dropped
	ctx   Context
}

func newInput(message string, c Context) input {
	raw := strings.ReplaceAll(strings.TrimSpace(message), "’", "'")
	text := strings.ToLower(raw)
	return input{
		raw:   raw,
		text:  text,
		words: splitWords(text),
		ctx:   c,
	}
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// exactWordLen is the longest phrase word that must match a message word
// exactly. Longer phrase words also match as a word prefix, so "track"
// finds "tracking" while "hi" never fires inside "this".
const exactWordLen = 4

// hasPhrase reports whether phrase occurs in words as adjacent words.
func (in input) hasPhrase(phrase string) bool {
	want := strings.Fields(phrase)
	if len(want) == 0 || len(want) > len(in.words) {
		return false
	}

	for i := 0; i+len(want) <= len(in.words); i++ {
		match := true
		for j, w := range want {
			if !wordMatches(in.words[i+j], w) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func wordMatches(word, want string) bool {
	if utf8.RuneCountInString(want) <= exactWordLen {
		return word == want
	}
	return strings.HasPrefix(word, want)
}

func (in input) hasAny(phrases []string) bool {
	for _, p := range phrases {
		if in.hasPhrase(p) {
			return true
		}
	}
	return false
}

// bare is the message reduced to its words, so "Yes!" and "yes" compare equal.
func (in input) bare() string {
	return strings.Join(in.words, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
