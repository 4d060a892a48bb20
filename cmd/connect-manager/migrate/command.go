package migrate

import (
	"github.com/spf13/cobra"

	"github.com/openfin/connect-manager/internal/business"
	"github.com/openfin/connect-manager/internal/cmdutils"
)

func Cmd(version string) *cobra.Command {
	return cmdutils.CobraCommand(
		"migrate",
		"Migrate the self-hosted directory database",
		"Applies the embedded schema migrations for the institution directory and popularity tables.",
		version,
		cmdutils.RunAsJob,
		business.MigrateMain,
	)
}
