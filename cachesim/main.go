// Command cachesim runs memory access traces through a simulated
// set-associative cache.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/cachesim/cachesim/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	code := cmd.Execute(ctx)

	stop()
	atexit.Exit(code)
}
