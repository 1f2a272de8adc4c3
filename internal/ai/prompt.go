// Package ai adapts the hosted language-model providers to the Completer
// interface used by the services. Each provider owns the system preambles;
// callers only supply user and assistant turns or a survey prompt.
package ai

// surveyPreamble asks for a single JSON object matching domain.SurveyDocument.
const surveyPreamble = `You are a survey design expert. Generate a survey based on the user's requirements. ` +
	`Output should be a JSON object with title, description, and questions array. ` +
	`Each question has "type" (one of "multiple_choice", "text", "rating"), "text", ` +
	`"choices" (array of strings, multiple_choice only) and optional "validation" ` +
	`({"required": bool, "min": int, "max": int}). Respond with the JSON object only.`

// chatPreamble frames the conversational assistant.
const chatPreamble = `You are a helpful survey assistant. Help the user plan survey goals, audiences ` +
	`and questions. Keep answers concise and practical. When the user is ready, suggest ` +
	`a one-paragraph prompt they can use to generate the survey.`
