/*
Package runner drives an interactive conversation with a tickstory Engine.

Each input line becomes one turn. Lines are either "intent key=value ..." or a
JSON user action ({"intent": "book", "entities": {"location": "Paris"}}).
Lines starting with a slash are commands handled by the runner itself:

	/state   print the current session
	/reset   forget the conversation
	/quit    stop the runner (also "exit" and "quit")

Input is untrusted: handlers reject oversized or invalid UTF-8 lines and strip
control characters, and every parsed action goes through Sanitizer.Action
before it reaches the engine.

The IOHandler strategy decouples the loop from the terminal: TextHandler
prints rendered answers for humans, JSONHandler emits one JSON turn result per
line for scripts.

# Usage

	r := runner.New(
		runner.WithConversationID("cli-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
