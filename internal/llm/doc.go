// Package llm implements the completion-service boundary.
//
// A Client sends one ordered list of role-tagged messages and returns the
// raw completion text. Clients never retry. Every call carries its own
// wall-clock deadline; when that deadline fires the error is classified as
// failure.KindTimeout with the text "timeout after Nms", distinct from the
// "fetch failed" text of a transport failure and from an upstream error body.
//
// Two implementations share that contract:
//
//   - OpenRouterClient speaks the OpenAI-compatible chat completions API
//     directly over net/http.
//   - LangChainClient goes through langchaingo's OpenAI provider.
//
// Both accept a shared *rate.Limiter so the senior and junior personas draw
// from one process-wide budget.
package llm
