// Package testutil provides scriptable fake plugins and capture helpers for
// exercising the supervision tree in tests.
//
// # Fake Plugins
//
// The four fake plugin types cover the plugin kinds the agent wires:
//
//   - FakeInput: owns a router, supports the limited mode shift, counts ingest
//   - FakeFilter: marks records with its plugin id
//   - FakeOutput: collects streams, flushable
//   - FakeRouterOutput: forwards into its wired router, like a relabel output
//
// Every lifecycle call lands in a shared CallLog in invocation order, which
// makes phase ordering across a whole tree assertable:
//
//	fixture := testutil.NewFixture()
//	registry := plugin.NewRegistry()
//	_ = fixture.Register(registry)
//
//	// ... configure and start an agent tree using fake_input etc ...
//
//	calls := fixture.Log.Methods("in0")
//	// ["configure", "start", "after_start", ...]
//
// Behavior is injected per method name. FailOn returns an error from the
// named transition, PanicOn panics inside it, SleepOn delays it so the
// concurrency of a phase can be observed:
//
//	out := fixture.Output("out0")
//	out.FailOn["shutdown"] = errors.New("flush failed")
//	out.SleepOn["close"] = 50 * time.Millisecond
//
// An injected failure fires before the completion flag is set, so the plugin
// still reports the transition as pending afterwards.
//
// # Capturing Logs
//
// LogRecorder captures slog output, flattening attributes for assertions:
//
//	rec := testutil.NewLogRecorder()
//	agent, _ := agent.NewRootAgent(registry, sys, agent.WithLogger(rec.Logger()))
//	// ...
//	assert.True(t, rec.HasMessage("emit transaction failed"))
package testutil
