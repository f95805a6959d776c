package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
)

func getVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the vidmill version",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := json.Marshal(struct {
				Version string `json:"version"`
				Commit  string `json:"commit"`
			}{Version, Commit})
			if err != nil {
				return err
			}

			fmt.Println(string(out))
			return nil
		},
	}

	return versionCmd
}
