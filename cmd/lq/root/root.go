package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-crandall/journal-app/internal/ui"
)

const Version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "lq",
	Short:         "LifeQuest — gamified life journal",
	Long:          "LifeQuest tracks your character stats, daily tasks and journal entries, turning real life into XP and levels.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.lifequest.yaml)")

	rootCmd.AddCommand(
		newStatusCmd(),
		newStatCmd(),
		newAckCmd(),
		newGrantCmd(),
		newAddCmd(),
		newListCmd(),
		newDoCmd(),
		newRmCmd(),
		newQuestCmd(),
		newFamilyCmd(),
		newJournalCmd(),
		newMetricsCmd(),
		newContextCmd(),
		newBoardCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
