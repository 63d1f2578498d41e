// Package game implements the core Quantum Mus game logic.
//
// The main type is Engine, which runs a complete four-player partnership
// match: the MUS discard negotiation, the GRANDE, CHICA, PARES and JUEGO
// betting rounds (with PUNTO as the JUEGO fallback), pares/juego
// declarations, quantum card collapse, scoring and match end.
//
// # Basic Usage
//
// Create an engine, seat agents, and start a match:
//
//	engine := game.NewEngine(game.Config{Mode: deck.ModeOchoReyes, Seed: 42},
//	    [4]string{"north", "east", "south", "west"})
//	engine.SetAgent(1, game.NewRandomAgent(randutil.New(7)))
//	engine.StartMatch()
//
// Seats without an agent are driven externally through SubmitAction; the
// engine applies the phase default when their turn timer expires.
//
//	err := engine.SubmitAction(0, game.Mus, game.ActionPaso, game.Payload{})
//
// Rejected actions return a typed error (ErrOutOfTurn, ErrIllegalAction, …)
// and never mutate state.
//
// # Deterministic Testing
//
// All randomness flows from Config.Seed and all timers from Config.Clock,
// so a mock clock plus a fixed seed replays a match exactly:
//
//	mock := quartz.NewMock(t)
//	engine := game.NewEngine(game.Config{Seed: 42, Clock: mock}, names)
//
// # Architecture
//
// Engine delegates to specialized components:
//   - deck.Deck: the Spanish 40-card deck with entangled quantum cards
//   - CurrentBet: bet/raise/órdago state within one betting round
//   - RoundWinner: closed-form evaluation of each round at hand end
//   - ResolvePares / ResolveJuego: certainty analysis over unresolved hands
//   - EventBus: ordered fan-out of game events to subscribers
//
// A single mutex serializes all state transitions; events are published
// synchronously in causal order, so subscribers must not call back into
// the engine from OnEvent.
package game
