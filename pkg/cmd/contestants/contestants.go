package contestants

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racing-lottery-go/pkg/cmd/common"
)

func NewContestantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contestants",
		Short: "prints the contestants a race would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := common.SetupLogger(os.Stderr); err != nil {
				return err
			}
			s := common.LoadSettings()
			printNames(cmd.OutOrStdout(), common.LoadContestants(s))
			return nil
		},
	}
	return cmd
}

func printNames(w io.Writer, names []string) {
	for i, name := range names {
		fmt.Fprintf(w, "%3d %s\n", i+1, name)
	}
}
