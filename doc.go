// Package readygate launches a server only after its dependencies are ready.
//
// readygate probes each declared target (TCP, HTTP(S), DNS, or PostgreSQL
// endpoints) at a fixed interval until it answers, runs any one-time init
// work such as schema migrations, and then hands control to the real
// server: by default it replaces its own process image via exec, so the
// server ends up running under the init system or container runtime as if
// it had been started directly.
//
// # Basic Usage
//
//	import "github.com/readygate/readygate"
//
//	ctx := context.Background()
//
//	l, err := readygate.New(
//	    readygate.WithTargets("db:5432", "http://cache:8080/healthz"),
//	    readygate.WithTimeout(90*time.Second),
//	    readygate.WithCommand("/srv/api", "--port", "8080"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	code, err := l.Run(ctx) // never returns on a successful exec handoff
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Exit(code)
//
// # Waiting Without a Handoff
//
// Wait runs only the gate, for callers that manage the process themselves:
//
//	l, err := readygate.New(readygate.WithTargets("db:5432"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	statuses, err := l.Wait(ctx)
//	if errors.Is(err, readygate.ErrUnavailable) {
//	    for _, st := range statuses {
//	        if !st.Ready {
//	            log.Printf("%s: %v after %d attempts", st.Target, st.Err, st.Attempts)
//	        }
//	    }
//	}
//
// # Supervised Launches
//
// With HandoffSupervise the launcher stays resident as the server's
// parent, forwarding signals and mirroring the exit code. Supervision is
// opt-in via WithMode, and switched to automatically when WithStatusServer
// is used or the platform cannot exec. Everything the launch did (targets
// probed, init steps run, how it ended) can be recorded to a SQLite
// journal with WithJournal.
package readygate
