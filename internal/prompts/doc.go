// Package prompts contains the LLM prompt templates delv sends to
// models.
//
// Prompt text is Go code rather than config files because it is
// program logic: templates are interpolated at runtime, benefit from
// compile-time embedding, and can be validated by tests. User-facing
// configuration lives in delv.yaml; this package holds the
// instructions we send to models for internal operations (the
// research loop, paper summarization).
//
// Convention: each prompt category gets its own file with an exported
// function that accepts the dynamic parts and returns the fully
// interpolated prompt string.
package prompts
