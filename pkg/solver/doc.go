// Package solver provides the bundled ports.Solver implementation and the random
// sources used to break ties between admissible candidates.
package solver
