// Package llm provides the text-completion client used by the deal-scoring
// pipeline. The only concrete backend is OpenRouter's chat-completions API;
// everything above this package depends on the service.CompletionService
// interface so tests can substitute a mock.
package llm
