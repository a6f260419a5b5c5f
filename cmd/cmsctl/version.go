package main

import (
	"github.com/Sternrassler/cms-client/pkg/client"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func (c *cli) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			type versionInfo struct {
				Version       string `json:"version" yaml:"version"`
				Commit        string `json:"commit" yaml:"commit"`
				Built         string `json:"built" yaml:"built"`
				ClientVersion string `json:"clientVersion" yaml:"clientVersion"`
			}

			info := versionInfo{
				Version:       version,
				Commit:        commit,
				Built:         date,
				ClientVersion: client.Version,
			}

			return printResult(cmd.OutOrStdout(), c.output(), info, func(table *tablewriter.Table) {
				table.Header("Property", "Value")
				_ = table.Append("Version", info.Version)
				_ = table.Append("Commit", info.Commit)
				_ = table.Append("Built", info.Built)
				_ = table.Append("Client", info.ClientVersion)
			})
		},
	}
}
