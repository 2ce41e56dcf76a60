package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// dispatcher is the command surface the loop needs; tests provide a stub.
type dispatcher interface {
	dispatch(ctx context.Context, cmd string, args []string) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit". A failing
// command prints its error and the loop goes on. Commands prompting for
// input read from the same reader.
func runREPL(ctx context.Context, d dispatcher, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprint(w, "aquatrack> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			if err := d.dispatch(ctx, parts[0], parts[1:]); err != nil {
				fmt.Fprintln(w, describe(err))
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}
