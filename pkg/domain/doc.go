/*
Package domain contains the core models of the tickstory orchestration core.

It defines the static description of a tick story (the hierarchical state
graph, the available actions and the declared context variables) and the
mutable per-conversation snapshot threaded through each turn. This package is
kept pure and free of I/O, following the Hexagonal Architecture used by the
rest of the module.

# Key Entities

  - State: A node of the hierarchical state graph (nested states, an optional
    initial child and named transitions).
  - TickAction: One atomic unit of bot behavior (optional answer, optional
    handler, silent/final flags).
  - TickConfiguration: The immutable story definition shared by all turns.
  - TickSession: The persisted per-conversation state (current state,
    contexts, handlers already run and the objectives stack).
  - TickHooks: Structured lifecycle callbacks used for tracing and metrics.
*/
package domain
