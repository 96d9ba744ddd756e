package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "servicehub",
	Short: "Home services marketplace backend with face-based attendance",
	Long: `ServiceHub is the backend of a home services marketplace. It serves the
catalog, bookings, payments and reviews API, recommends providers for free-text
requests, and enrolls and matches faces for attendance.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
