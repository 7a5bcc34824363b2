// Package contract turns untrusted model output into typed, per-phase results.
//
// Parsing happens once, at the boundary. Parse strips code-fence markup and
// decodes JSON; it reports failure instead of guessing. The Decode functions
// map a parse result onto one closed result type per phase:
//
//	PlanResult       = Tasks | Unparsed
//	BuildFinalResult = Reviewed | ContractViolation
//
// CallWithRepair is the single structured-call primitive: one completion,
// and at most one repair completion when the first response fails its
// validator.
package contract
