package constant

const (
	// QuoteReflectionPrompt asks for a short reflection; %s is the quote text
	QuoteReflectionPrompt = `Write a two-sentence, warm and practical reflection on this quote for someone's day.
Reply with the reflection only.

Quote: "%s"`
)
