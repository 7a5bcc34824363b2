// Package orchestrator sequences one delegation run.
//
// # State machine
//
// A run makes a single pass through
//
//	start → plan → execute (×k, sequential) → finalize → (publish) → done
//
// or, in fast-build mode,
//
//	start → fast_build → (publish) → done
//
// Any failure moves the run to the terminal failed state with the
// triggering error. Nothing branches back.
//
// # Policies
//
//   - Task cap: min(3, max(1, c)); build modes default to orchestrator.default_max_tasks,
//     default mode always allows the ceiling.
//   - Plan fallback: an unparsed or empty plan becomes exactly one synthesized task
//     and the run continues.
//   - Review contract: a build-mode finalize response without a files array aborts
//     the run with failure.KindContract and the raw response attached. No publish
//     happens after that.
//   - File merge: executor files are merged in task order, last write wins by path.
//
// Tasks run one after another. The merge result depends on that order, so the
// execute loop must stay sequential.
//
// # Progress
//
// OnProgress registers a callback that receives a PhaseProgress for every
// state transition, in order, from the goroutine running the request.
package orchestrator
