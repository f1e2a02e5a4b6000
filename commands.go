package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boletin/scraper"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "List matching notices from a saved section page, without a browser",
	RunE:  runHarvest,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Download the playwright driver and Chromium",
	RunE: func(_ *cobra.Command, _ []string) error {
		return scraper.InstallBrowsers(true)
	},
}

var harvestFile string

func init() {
	addConfigFlags(harvestCmd)
	harvestCmd.Flags().StringVarP(&harvestFile, "file", "f", "", "Saved HTML of the section page (required)")
	if err := harvestCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(installCmd)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	f, err := os.Open(harvestFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", harvestFile, err)
	}
	defer f.Close()

	page, err := scraper.NewStaticPage(f, config.Domain)
	if err != nil {
		return err
	}

	links, err := scraper.HarvestStatic(page, config, scraper.NewLogger(os.Stderr, ""))
	if err != nil {
		return err
	}

	for _, link := range links {
		fmt.Printf("%s\t%s\n", link.ID, link.Title)
	}
	fmt.Fprintf(os.Stderr, "%d matching notices\n", len(links))
	return nil
}
