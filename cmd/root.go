package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the focusmate application
var rootCmd = &cobra.Command{
	Use:   "focusmate",
	Short: "MCP server for planning focus sessions with Kakao services",
	Long: `focusmate is a Model Context Protocol server that helps an assistant plan a
focus session: find a place to study or work nearby, put the session in the
user's Kakao calendar and send a commitment message to their own KakaoTalk.

It can run as:
  - An MCP server over stdio or streamable HTTP (default: serve)
  - A one-shot CLI for calling a single tool`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "focusmate version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCallCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
