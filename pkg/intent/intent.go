package intent

// Intent is the closed set of purposes an utterance can resolve to
type Intent string

const (
	SmallTalk      Intent = "small_talk"
	JournalStart   Intent = "journal.start"
	GratitudeAdd   Intent = "gratitude.add"
	TodoAdd        Intent = "todo.add"
	TodoList       Intent = "todo.list"
	TodoComplete   Intent = "todo.complete"
	TodoDelete     Intent = "todo.delete"
	QuoteGet       Intent = "quote.get"
	MeditationPlay Intent = "meditation.play"
	MeditationStop Intent = "meditation.stop"
	SessionEnd     Intent = "session.end"
)

// All lists every intent, small talk first
var All = []Intent{
	SmallTalk,
	JournalStart,
	GratitudeAdd,
	TodoAdd,
	TodoList,
	TodoComplete,
	TodoDelete,
	QuoteGet,
	MeditationPlay,
	MeditationStop,
	SessionEnd,
}

// Default is returned whenever nothing better can be resolved
const Default = SmallTalk

// Valid reports whether s names a known intent
func Valid(s string) bool {
	for _, i := range All {
		if string(i) == s {
			return true
		}
	}
	return false
}

// IsTool reports whether the intent dispatches to an activity tool instead of the responder
func (i Intent) IsTool() bool {
	return i != SmallTalk && Valid(string(i))
}

// Source tells which tier produced a result
type Source string

const (
	SourcePattern    Source = "pattern"
	SourceClassifier Source = "classifier"
	SourceDefault    Source = "default"
)

// Result of intent resolution. Intent is never empty.
type Result struct {
	Intent     Intent
	Confidence float64
	Args       map[string]interface{}
	Source     Source
}

func defaultResult() Result {
	return Result{Intent: Default, Confidence: 0, Args: map[string]interface{}{}, Source: SourceDefault}
}
