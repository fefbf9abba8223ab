package main

import (
	"fmt"

	"github.com/Alfthrpy/shortener-api/internal/repository"
	"github.com/Alfthrpy/shortener-api/pkg/logging"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Connects to the configured database and runs GORM auto-migrations for the links and click bucket tables.`,
	Run: func(cmd *cobra.Command, args []string) {
		logging.InitLoggerFromConfig()
		repository.InitDB(logging.Logger, logging.AtomicLevel)
		fmt.Println("Database migrations executed successfully.")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
