// Package agent implements the two completion-service personas.
//
// Senior plans a goal into tasks and later reviews the junior results.
// Junior executes one task, either as free text or as a generated file set.
// Both scrub outbound user content for secrets before it leaves the process.
package agent
