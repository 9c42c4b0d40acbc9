// Package replshell is an interactive terminal stepper for `tracevm repl`:
// load a source file, then step through its precomputed states with
// n/p/g/q keystrokes. It is local development/demoing tooling, separate
// from the HTTP façade's endpoints.
package replshell

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tracevm/internal/trace"
)

// Start traces the given source text and drives an interactive
// step/print loop over stdin/stdout.
func Start(source string) {
	fmt.Println("tracevm repl | n=next p=prev g=goto <step> q=quit")

	states := trace.Run(source)
	fmt.Printf("%d states computed\n", len(states))

	step := 0
	printState(states[step])

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "q" || line == "quit" || line == "exit":
			return
		case line == "n" || line == "next":
			if step < len(states)-1 {
				step++
			}
			printState(states[step])
		case line == "p" || line == "prev":
			if step > 0 {
				step--
			}
			printState(states[step])
		case strings.HasPrefix(line, "g "):
			n, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err != nil || n < 0 || n >= len(states) {
				fmt.Println("invalid step")
				continue
			}
			step = n
			printState(states[step])
		default:
			fmt.Println("unrecognized command; use n/p/g <step>/q")
		}
	}
}

func printState(st trace.State) {
	fmt.Printf("--- step %d, line %d ---\n", st.Step, st.Line)
	if st.Action != nil {
		fmt.Printf("action: %s\n", *st.Action)
	}
	for _, v := range st.Variables {
		if v.Elems != nil {
			fmt.Printf("  %s: %v (%s)\n", v.Name, v.Elems, v.Visual)
		} else {
			fmt.Printf("  %s = %v (%s)\n", v.Name, v.Value, v.Visual)
		}
	}
	for _, h := range st.Heap {
		fmt.Printf("  heap %s <%s>: %+v\n", h.ID, h.Type, h.Fields)
	}
}
