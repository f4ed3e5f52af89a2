package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnemet/SlideText/internal/config"
	"github.com/gnemet/SlideText/internal/extractor"
	"github.com/gnemet/SlideText/internal/report"
)

var (
	// Version is set during build
	Version = "dev"

	configFile string
	format     string
)

var rootCmd = &cobra.Command{
	Use:   "slidetext [file.pptx]",
	Short: "Extract per-slide titles and text from PowerPoint files",
	Long: `slidetext opens a .pptx presentation and prints, for every slide, the
title placeholder text and the remaining body text. Without an argument
the configured default input is used.`,
	Version:       Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ./config.yaml)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json, markdown, html")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(shapesCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}

	input := cfg.Extractor.DefaultInput
	if len(args) == 1 {
		input = args[0]
	}

	name := cfg.Extractor.Format
	if cmd.Flags().Changed("format") {
		name = format
	}
	f, err := report.ParseFormat(name)
	if err != nil {
		return err
	}

	slides, err := extractor.NewSlidesExtractor().ExtractFromFile(input)
	if err != nil {
		return err
	}

	return report.Write(cmd.OutOrStdout(), f, slides)
}
