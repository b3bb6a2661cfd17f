// Package cli implements shopctl, the administrative command line for the shop API.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"

	"github.com/choriweb/shop-api/internal/core/ports"
)

// OpenFunc connects to the stores and returns the account service plus a
// cleanup func. It runs lazily so --help works without a database.
type OpenFunc func(ctx context.Context) (ports.AuthService, func(), error)

type app struct {
	open         OpenFunc
	out          io.Writer
	readPassword func() ([]byte, error)
}

// NewRootCmd builds the shopctl command tree.
func NewRootCmd(open OpenFunc, out io.Writer) *cobra.Command {
	a := &app{open: open, out: out, readPassword: gopass.GetPasswd}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Administrative tasks for the shop API.",
		Long:          "Administrative tasks for the shop API. Reads the same environment configuration as the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.AddCommand(a.createAdminCmd(), a.setRoleCmd())
	return root
}

// Execute runs the command tree and exits in the event of an error.
func Execute(open OpenFunc) {
	if err := NewRootCmd(open, os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) print(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// withAccounts opens the stores for the duration of fn.
func (a *app) withAccounts(cmd *cobra.Command, fn func(ctx context.Context, svc ports.AuthService) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}
