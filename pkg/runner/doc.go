/*
Package runner drives a navigator.Navigator from a line-oriented stream.

It is the read-eval-print loop behind the browse command: it reads one
command at a time through an IOHandler, executes it, and hands the
navigator's Response back to the handler for display. Two handlers ship
with the package:

  - TextHandler: prompt-based interaction for terminals and pipes.
  - JSONHandler: one JSON object per line, for scripts and agents.

An interrupt (Ctrl+C) while a command runs cancels that command only;
an interrupt at the prompt ends the session.

# Usage

	nav := navigator.New(inspector)
	r := runner.New(nav,
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
		runner.WithInitialPID(pid),
	)
	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
