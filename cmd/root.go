/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flatclub",
	Short: "FLAT-CLUB room rental and flatshare backend",
	Long: `FLAT-CLUB is the backend API for a room rental and flatshare
marketplace: listings with image uploads, flatshare groups with a
join-request flow, direct messages and user profiles.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
