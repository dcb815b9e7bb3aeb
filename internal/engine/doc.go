// Package engine synthesizes virtual module descriptions from process-chain
// templates and fills templates into concrete steps.
//
// A template is a stored process chain whose string values may contain
// {{ variable }} placeholders. The engine answers two questions about it:
//
//   - Synthesize: what does this template look like as a module? Each
//     exposed placeholder becomes a parameter (or return) whose descriptor
//     is taken from the engine module parameter it feeds.
//   - Fill: given bindings for the placeholders, what concrete steps does it
//     produce?
//
// RESOLUTION:
//
// Synthesis runs in three phases over the discovery rendering of the
// template (every required variable rendered as its own placeholder):
//
//  1. Collect: walk the steps in order and record every placeholder
//     occurrence keyed by (step, param[, placeholder]).
//  2. Describe: ask the Describer once per distinct engine module that
//     carried a placeholder.
//  3. Transform: rename and annotate the described parameters, first
//     exposed name wins.
//
// Steps whose module is itself a stored template are resolved by explicit
// recursion with a child resolution. The child shares the describe cache
// and batch clock of the top-level call and pushes onto a copy of the
// template stack, which raises CyclicTemplateError on A -> B -> A and
// DepthExceededError beyond the configured depth.
//
// Resolution is single-threaded and synchronous. The Describer call is the
// only blocking operation and is never retried.
package engine
