/*
Package statemachine loads a hierarchical state graph and answers the
structural queries the turn processor needs: lookup by id, parent lookup,
initial-leaf resolution, transition resolution and enumeration of leaves and
event names.

The graph is validated once at construction. A Machine never changes after New
returns, so a single instance can be shared by every conversation.
*/
package statemachine
