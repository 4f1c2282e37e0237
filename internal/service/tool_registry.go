package service

import (
	"well-bot-be/pkg/intent"
	"well-bot-be/pkg/turn"
)

// Tools groups every activity tool service
type Tools struct {
	Journal    IJournalService
	Gratitude  IGratitudeService
	Todo       ITodoService
	Quote      IQuoteService
	Meditation IMeditationService
	Session    ISessionService
	Activity   IActivityService
	Memory     IMemoryService
	Safety     ISafetyService
}

// Dispatch binds every tool intent to its handler and session effect
func (t Tools) Dispatch() turn.Dispatch {
	return turn.Dispatch{
		intent.JournalStart:   {Tool: ToolJournalStart, Handler: t.Journal.Start},
		intent.GratitudeAdd:   {Tool: ToolGratitudeAdd, Handler: t.Gratitude.Add},
		intent.TodoAdd:        {Tool: ToolTodoAdd, Handler: t.Todo.Add},
		intent.TodoList:       {Tool: ToolTodoList, Handler: t.Todo.List},
		intent.TodoComplete:   {Tool: ToolTodoComplete, Handler: t.Todo.Complete},
		intent.TodoDelete:     {Tool: ToolTodoDelete, Handler: t.Todo.Delete},
		intent.QuoteGet:       {Tool: ToolQuoteGet, Handler: t.Quote.Get},
		intent.MeditationPlay: {Tool: ToolMeditationPlay, Handler: t.Meditation.Play, Effect: turn.EffectSuspend},
		intent.MeditationStop: {Tool: ToolMeditationCancel, Handler: t.Meditation.Cancel, Effect: turn.EffectResume},
		intent.SessionEnd:     {Tool: ToolSessionEnd, Handler: t.Session.End, Effect: turn.EffectEndSession},
	}
}

// Extras are tools reachable only through the tool endpoint
func (t Tools) Extras() []turn.Entry {
	return []turn.Entry{
		{Tool: ToolJournalStop, Handler: t.Journal.Stop},
		{Tool: ToolJournalSave, Handler: t.Journal.Save},
		{Tool: ToolMeditationRestart, Handler: t.Meditation.Restart, Effect: turn.EffectSuspend},
		{Tool: ToolMeditationLog, Handler: t.Meditation.Log, Effect: turn.EffectResume},
		{Tool: ToolSessionWake, Handler: t.Session.Wake},
		{Tool: ToolActivityLog, Handler: t.Activity.Log},
		{Tool: ToolMemorySearch, Handler: t.Memory.Search},
		{Tool: ToolSafetyCheck, Handler: t.Safety.Check},
		{Tool: ToolTestHello, Handler: Hello},
	}
}

// Toolbox indexes all tools by name
func (t Tools) Toolbox() (turn.Toolbox, error) {
	return turn.NewToolbox(t.Dispatch(), t.Extras()...)
}
