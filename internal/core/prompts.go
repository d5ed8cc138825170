package core

// Fixed texts used by the agent.
const (
	// Disclaimer is appended to every final answer that does not already
	// contain it.
	Disclaimer = "I am an AI, not a doctor. Please consult a healthcare professional."

	// SystemPrompt governs every exchange.  It asks the model to use the
	// tools for factual data, to answer in the user's language and to close
	// with the disclaimer.
	SystemPrompt = "You are a public health information assistant. " +
		"Use the available tools to look up vaccination schedules, disease symptoms and prevention, and disease outbreak reports; " +
		"call sync_who_outbreaks when the user asks for the latest outbreak news or when stored outbreak data is missing. " +
		"Base factual statements on tool results and say honestly when no data was found. " +
		"Never give a diagnosis or prescribe treatment. " +
		"Always reply in the same language as the user's message. " +
		"Always end your answer with this disclaimer, translated into the user's language: \"" + Disclaimer + "\""

	// ToolUnavailable is the tool result used when the model asks for a tool
	// that is not in the catalog.
	ToolUnavailable = "Error: the requested tool is unavailable. Answer from general knowledge and say that the data source could not be used."

	// FallbackAnswer is returned when the resolve call yields no text.
	FallbackAnswer = "Sorry, I could not put together an answer to your question right now."
)
