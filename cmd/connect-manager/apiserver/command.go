package apiserver

import (
	"github.com/spf13/cobra"

	"github.com/openfin/connect-manager/internal/business"
	"github.com/openfin/connect-manager/internal/cmdutils"
)

func Cmd(version string) *cobra.Command {
	return cmdutils.CobraCommand(
		"apiserver",
		"Start the Connect Manager API server",
		"Serves the bank-connection flow API: institution search, provider hand-off, and flow state.",
		version,
		cmdutils.RunAsService,
		business.Main,
	)
}
