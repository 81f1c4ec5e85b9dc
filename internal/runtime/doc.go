// Package runtime implements the turn processor of a tick story.
//
// A turn starts with one user action and runs actions until a visible one
// (or a final one) is reached. Each step resolves a primary objective from the
// state machine or the objectives stack, asks the solver for the concrete
// action to run, executes it and updates the session.
//
// The processor never mutates the session it receives: it works on a clone and
// returns the new snapshot only when the whole turn succeeds.
package runtime
