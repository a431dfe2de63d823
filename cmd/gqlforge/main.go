// Command gqlforge runs the code generators configured in gqlforge.hcl.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/hanpama/gqlforge/internal/scheduler"
)

// version is overwritten at link time by release builds.
var version = "dev"

func main() {
	os.Exit(execute(context.Background(), afero.NewOsFs(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, fs afero.Fs, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(fs)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var runErr *scheduler.RunError
	if errors.As(err, &runErr) {
		for _, f := range runErr.Failures {
			fmt.Fprintf(stderr, "task %s failed during %s: %v\n", f.Task, f.Phase, f.Err)
		}
		return 1
	}
	fmt.Fprintf(stderr, "gqlforge: %v\n", err)
	return 1
}
