package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/clinicflow_backend/cmd/cmdutil"
	httpcmd "github.com/Alijeyrad/clinicflow_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/clinicflow_backend/cmd/system"
)

// version is stamped at build time with
// -ldflags "-X github.com/Alijeyrad/clinicflow_backend/cmd.version=...".
var version = "dev"

// NewRootCommand assembles the clinicflow CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "clinicflow",
		Short:   "Multi-clinic scheduling and patient records backend",
		Version: version,
		Long: `clinicflow serves clinics, their staff, patients and appointments.
Every record belongs to exactly one clinic and every request is resolved
to a clinic scope before any data is touched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String(cmdutil.ConfigFlag, "config.yaml", "config file; its directory is also searched for .env")

	root.AddCommand(httpcmd.NewHTTPCommand(), systemcmd.NewSystemCommand())
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "clinicflow:", err)
		os.Exit(1)
	}
}
