// Package worker drains the pending content queue in the background.
//
// The loop polls for pending items, claims each one atomically, and runs a
// two-stage pipeline per item: extraction (raw submission to searchable
// text) and classification (text to taxonomy). Extraction failure moves the
// item to error with an incremented attempt count; classification failure
// is tolerated and the item completes without a taxonomy.
//
// Items are processed with bounded parallelism inside each cycle. The claim
// step makes concurrent workers safe: of two processes racing for the same
// item exactly one wins, and the loser moves on silently.
//
// Items that keep failing age out of the queue once they hit the attempt
// cap. Reviving them is a deliberate operator action, not something the
// loop does on its own.
//
// Shutdown is cooperative: cancelling the run context stops new cycles but
// items already dispatched finish, so nothing is left in processing when
// the loop exits.
package worker
