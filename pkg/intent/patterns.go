package intent

import (
	"regexp"
	"strings"
)

// PatternConfidence is assigned to every fast-path match
const PatternConfidence = 0.95

type extractor func(text string) (map[string]interface{}, bool)

type pattern struct {
	intent  Intent
	matcher *regexp.Regexp
	// extract returns the args for a match; false rejects the match so later
	// patterns and the classifier get a chance
	extract extractor
}

var (
	todoAddContent = regexp.MustCompile(`(?i)\badd\s+(?:a\s+)?to-?do\s+(.+)`)
	aboutTopic     = regexp.MustCompile(`(?i)\babout\s+(.+)`)
	gratitudeBody  = regexp.MustCompile(`(?i)\b(?:gratitude|grateful|thankful)\s+(?:for\s+)?(.+)`)
	completeItem   = regexp.MustCompile(`(?i)\b(?:complete|finish|done)\s+(.+)`)
	deleteItem     = regexp.MustCompile(`(?i)\b(?:delete|remove)\s+(.+)`)
)

// fastPaths is evaluated in order; the first accepted match wins
var fastPaths = []pattern{
	{intent: SessionEnd, matcher: regexp.MustCompile(`(?i)\b(bye|talk\s+later|goodbye)\b`)},
	{intent: MeditationStop, matcher: regexp.MustCompile(`(?i)\b(stop|end|finish)\s+(the\s+)?meditation\b`)},
	{intent: JournalStart, matcher: regexp.MustCompile(`(?i)\bstart\s+(a\s+|my\s+)?journal\b`), extract: captureArg(aboutTopic, "topic")},
	{intent: TodoList, matcher: regexp.MustCompile(`(?i)\bshow\s+(me\s+)?(my\s+)?to-?do`)},
	{intent: TodoAdd, matcher: regexp.MustCompile(`(?i)\badd\s+(a\s+)?to-?do\b`), extract: requireArg(todoAddContent, "content")},
	{intent: QuoteGet, matcher: regexp.MustCompile(`(?i)\b(give\s+me\s+a\s+)?quote\b`)},
	{intent: MeditationPlay, matcher: regexp.MustCompile(`(?i)\b(start\s+)?meditation\b`)},
}

// ArgExtractors pull intent-specific args from raw text. Exposed for tools that
// receive classifier results without args.
var ArgExtractors = map[Intent]func(string) map[string]interface{}{
	TodoAdd:      argFrom(todoAddContent, "content"),
	GratitudeAdd: argFrom(gratitudeBody, "content"),
	JournalStart: argFrom(aboutTopic, "topic"),
	TodoComplete: argFrom(completeItem, "item"),
	TodoDelete:   argFrom(deleteItem, "item"),
}

func argFrom(re *regexp.Regexp, key string) func(string) map[string]interface{} {
	return func(text string) map[string]interface{} {
		args := map[string]interface{}{}
		if m := re.FindStringSubmatch(text); m != nil {
			if v := cleanArg(m[1]); v != "" {
				args[key] = v
			}
		}
		return args
	}
}

func captureArg(re *regexp.Regexp, key string) extractor {
	get := argFrom(re, key)
	return func(text string) (map[string]interface{}, bool) {
		return get(text), true
	}
}

func requireArg(re *regexp.Regexp, key string) extractor {
	get := argFrom(re, key)
	return func(text string) (map[string]interface{}, bool) {
		args := get(text)
		_, ok := args[key]
		return args, ok
	}
}

func cleanArg(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!?"))
}

// MatchPattern runs the fast-path table. It is pure: the same text always yields
// the same result.
func MatchPattern(text string) (Result, bool) {
	for _, p := range fastPaths {
		if !p.matcher.MatchString(text) {
			continue
		}
		args := map[string]interface{}{}
		if p.extract != nil {
			var ok bool
			args, ok = p.extract(text)
			if !ok {
				continue
			}
		}
		return Result{Intent: p.intent, Confidence: PatternConfidence, Args: args, Source: SourcePattern}, true
	}
	return Result{}, false
}
