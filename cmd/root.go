// Package cmd implements the command-line interface for miru.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/miru-player/miru/color"
	"github.com/miru-player/miru/constant"
	"github.com/miru-player/miru/key"
	"github.com/miru-player/miru/log"
	"github.com/miru-player/miru/style"
	"github.com/miru-player/miru/util"
	"github.com/miru-player/miru/version"
	"github.com/miru-player/miru/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("quality", "q", "", "Preferred playback quality (auto or a label such as 720p)")
	lo.Must0(viper.BindPFlag(key.PlaybackQuality, rootCmd.PersistentFlags().Lookup("quality")))

	rootCmd.PersistentFlags().StringP("player", "p", "", "Media playback engine to drive (mpv, headless)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("player", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"mpv", "headless"}, cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.Player, rootCmd.PersistentFlags().Lookup("player")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the miru application.
var rootCmd = &cobra.Command{
	Use:   constant.Miru,
	Short: "A coordination core and command-line shell for media playback",
	Long: style.New().Italic(true).Foreground(color.HiBlue).
		Render("    miru - resolve sources, restore preferences, play"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		lo.Must0(cmd.Help())
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", style.Fg(color.Red)("✗"), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
