package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridwatch/gridwatch/internal/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("extended", "e", false, "show extended version information")
	versionCmd.Flags().Bool("json", false, "print the same payload as GET /version")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	asJSON, _ := cmd.Flags().GetBool("json")

	info := handlers.CurrentVersion()
	out := cmd.OutOrStdout()

	if asJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", info.App.Name, info.App.Version)
	if !extended {
		return nil
	}
	_, _ = fmt.Fprintf(out, "Commit: %s\n", info.App.Commit)
	_, _ = fmt.Fprintf(out, "Built: %s\n", info.App.BuildDate)
	_, _ = fmt.Fprintf(out, "Go: %s (%s)\n", info.App.GoVersion, info.Runtime.Platform)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintf(out, "Gofulmen: %s\n", info.Dependencies.Gofulmen)
	_, _ = fmt.Fprintf(out, "Crucible: %s\n", info.Dependencies.Crucible)
	return nil
}
