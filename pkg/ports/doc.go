/*
Package ports defines the driven ports (interfaces) of the tickstory core.

These interfaces decouple the turn processor from external implementations,
allowing the engine to work with various storage backends, story sources,
solvers and response channels.

# Key Interfaces

  - SessionStore: Persists and loads TickSessions keyed by conversation id.
  - DistributedLocker: Serializes turns of one conversation across replicas.
  - StoryLoader: Retrieves tick story configurations by name.
  - Solver: Returns the admissible next actions toward a primary objective.
  - Responder: Delivers templated answers in visible, debug or suppressed mode.
*/
package ports
