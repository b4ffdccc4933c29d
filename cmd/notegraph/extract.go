package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/notegraph/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Build a knowledge graph from a notes file or stdin",
	Long: `Extract reads notes from a file (or stdin when no file or "-" is given),
asks the model for a knowledge graph and prints it as JSON or YAML. Output the
model gets wrong prints as an empty graph; a failed API call is an error.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}

	notes, err := readNotes(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, logger, err := setup(viper.GetViper(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Sync()

	extractor, err := newExtractor(cfg, logger, nil)
	if err != nil {
		return err
	}

	g, err := extractor.Generate(cmd.Context(), notes)
	if err != nil {
		return err
	}
	return writeGraph(cmd.OutOrStdout(), g, format)
}

func readNotes(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading notes from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading notes %s: %w", args[0], err)
	}
	return string(data), nil
}

func writeGraph(w io.Writer, g types.KnowledgeGraph, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(g); err != nil {
			return fmt.Errorf("encoding graph: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g)
}

func init() {
	extractCmd.Flags().String("format", "json", "output format: json or yaml")

	rootCmd.AddCommand(extractCmd)
}
