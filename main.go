package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"boletin/scraper"
)

var rootCmd = &cobra.Command{
	Use:   "boletin",
	Short: "Download this month's gazette notices that match a keyword",
	Long: "boletin walks the Boletín Oficial calendar day by day for the current month, " +
		"picks the notices whose title contains a keyword and downloads them into Dia_<n> folders.",
	RunE: runScrape,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk the calendar and download matching notices (default)",
	RunE:  runScrape,
}

var (
	configPath  string
	headless    bool
	driver      string
	downloadDir string
	keywords    []string
	matchMode   string
	debug       bool
	logFile     string
)

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		addConfigFlags(cmd)
		cmd.Flags().BoolVar(&headless, "headless", false, "Run the browser without a window")
		cmd.Flags().StringVar(&driver, "driver", scraper.DriverPlaywright, "Browser driver: playwright or chromedp")
		cmd.Flags().StringVar(&logFile, "log-file", "scraper.log", "Log file, in addition to the console (empty to disable)")
		cmd.Flags().BoolVar(&debug, "debug", false, "Verbose driver output")
	}
	rootCmd.AddCommand(runCmd)
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	cmd.Flags().StringVarP(&downloadDir, "download-dir", "o", "", "Base download folder (default ./Descargas)")
	cmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "Title keyword, repeatable (default \"MINISTERIO DE JUSTICIA\")")
	cmd.Flags().StringVar(&matchMode, "match-mode", string(scraper.MatchExact), "Keyword matching: exact or fold (ignore case and accents)")
}

// loadConfig layers defaults, the config file, BOLETIN_* variables and flags.
func loadConfig(cmd *cobra.Command) (scraper.ScraperConfig, error) {
	config := scraper.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = scraper.LoadConfigFile(configPath); err != nil {
			return config, err
		}
	}

	if err := config.ApplyEnv(); err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("headless") {
		config.Headless = headless
	}
	if flags.Changed("driver") {
		config.Driver = driver
	}
	if flags.Changed("download-dir") {
		config.DownloadDir = downloadDir
	}
	if flags.Changed("keyword") {
		config.Keywords = keywords
	}
	if flags.Changed("match-mode") {
		config.MatchMode = scraper.MatchMode(matchMode)
	}
	if flags.Changed("debug") {
		config.Debug = debug
	}
	if flags.Changed("log-file") {
		config.LogFile = logFile
	}

	if err := config.ResolvePaths(); err != nil {
		return config, err
	}

	return config, config.Validate()
}

func runScrape(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	scrap, err := scraper.NewScraper(config)
	if err != nil {
		return err
	}
	defer scrap.Close()

	summary, err := scrap.Run()
	if err != nil {
		return err
	}

	fmt.Printf("\n--- finished: %s, day %d of %d, %d queued, %d downloaded, %d failed, %.2f minutes ---\n",
		summary.Stop, summary.Cursor, summary.Today, summary.Queued, summary.Downloaded, summary.Failed,
		summary.Elapsed.Minutes())
	return nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
