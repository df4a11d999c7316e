package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hakim/nativerecon/internal/tools"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for required external tools",
	Long: `Verify that nmap, host, dig, curl and nikto are installed and available.
Shows installation status, version information, and installation instructions
for missing tools. Configured tool paths are honoured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		toolList := tools.WithBinaries(tools.DefaultTools(), cfg.Tools.Binaries())
		results := tools.CheckTools(toolList)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "Tool\tStatus\tVersion\tPurpose")
		fmt.Fprintln(w, "----\t------\t-------\t-------")

		foundCount := 0
		var missing []tools.CheckResult

		for _, result := range results {
			status := color.RedString("[-]")
			version := "-"

			if result.Found {
				status = color.GreenString("[+]")
				foundCount++
				if result.Version != "" && result.Version != "unknown" {
					version = result.Version
				}
			} else if result.Tool.Required {
				missing = append(missing, result)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", result.Tool.Name, status, version, result.Tool.Purpose)
		}
		w.Flush()

		if len(missing) > 0 {
			fmt.Println()
			fmt.Println("Missing tools:")
			for _, result := range missing {
				fmt.Printf("  %s (REQUIRED)\n    Install: %s\n", result.Tool.Name, result.Tool.InstallCmd)
			}
		}

		fmt.Println()
		fmt.Printf("Summary: %d/%d tools found\n", foundCount, len(results))

		if len(missing) > 0 {
			return fmt.Errorf("%w: %d of %d", tools.ErrMissingTools, len(missing), len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
