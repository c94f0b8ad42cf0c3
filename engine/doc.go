// Package engine implements the match orchestrator of matcharena.
//
// The engine drives a turn loop between a set of agents and a deterministic
// scenario, asks each agent for an action through a gateway adapter, and
// records everything that happens as a strictly ordered event log.
//
// # Core Responsibilities
//
// Seeding:
//   - One master RNG stream per match, created from Config.Seed
//   - One derived seed per agent (array order), then one for the scenario
//   - Identical master seed always yields identical derived seeds
//
// Turn loop:
//   - Agents act in their fixed array order, never reshuffled
//   - Every agent-turn goes through a gateway.Adapter under a deadline
//   - Failures degrade to the scenario's default action and are recorded
//   - Exactly one StateUpdated per turn and one terminal MatchEnded
//
// Timeouts and forfeiture:
//   - TimeoutTracker counts consecutive and total timeouts per agent
//   - Reaching Config.MaxConsecutiveTimeouts forfeits the match
//   - ApplyForfeitFloor guarantees a forfeit is never a win or a draw
//
// Sequencing:
//   - A single counter owned by the match assigns seq, starting at 0
//   - Wall-clock time never orders events
//
// # Strategies
//
// A match runs under one of two strategies behind the same signature:
//
//	┌──────────────┐   SoloWorld && 2 agents   ┌──────────────────────────┐
//	│  Run[S]      │ ────────────────────────▶ │ solo: run each agent in  │
//	│              │                           │ its own world, Combine   │
//	│              │ ──── otherwise ─────────▶ │ standard: one shared     │
//	└──────────────┘                           │ world, one turn loop     │
//	                                           └──────────────────────────┘
//
// The solo strategy exists for scenarios whose state model cannot host two
// simultaneously active agents. Both solo runs share no mutable state and can
// run concurrently (Config.ParallelSolo); the combined output does not depend
// on their completion order.
//
// # Errors
//
// Agent-turn failures never surface as Go errors. Run returns an error only
// for misconfiguration (ErrNoAgents, ErrDuplicateAgent, ErrAdapterMissing,
// ErrInvalidConfig), for an agent whose Init fails, or when ctx is cancelled.
//
// # Example
//
//	res, err := engine.Run(ctx, numberguess.New(), []core.Agent{
//		numberguess.NewRandomAgent("random"),
//		numberguess.NewBaselineAgent("baseline"),
//	}, func(o *engine.Options) {
//		o.Config.Seed = 123
//	})
package engine
