package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/air-quality-insight/internal/config"
	"github.com/i474232898/air-quality-insight/internal/pipeline"
)

const dateLayout = "2006-01-02"

var (
	flagDate    string
	flagOutput  string
	flagTimeout time.Duration
	flagLat     float64
	flagLon     float64
	flagDays    int
)

var queryCmd = &cobra.Command{
	Use:   `query "<question>"`,
	Short: "Answer one question and print the pipeline result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var pointCmd = &cobra.Command{
	Use:   "point",
	Short: "Fetch and summarize one coordinate",
	RunE:  runPoint,
}

func init() {
	for _, c := range []*cobra.Command{queryCmd, pointCmd} {
		c.Flags().StringVarP(&flagOutput, "output", "o", "json", "output format: json or yaml")
		c.Flags().DurationVar(&flagTimeout, "timeout", 2*time.Minute, "overall deadline")
	}
	queryCmd.Flags().StringVar(&flagDate, "date", "", "reference date (YYYY-MM-DD), defaults to today")

	pointCmd.Flags().Float64Var(&flagLat, "lat", 0, "latitude in decimal degrees")
	pointCmd.Flags().Float64Var(&flagLon, "lon", 0, "longitude in decimal degrees")
	pointCmd.Flags().IntVar(&flagDays, "days", 1, "number of days ending today")
	pointCmd.MarkFlagRequired("lat")
	pointCmd.MarkFlagRequired("lon")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ref := time.Now()
	if flagDate != "" {
		d, err := time.Parse(dateLayout, flagDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		ref = d
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	result := svc.pipeline.Run(ctx, pipeline.Request{Query: strings.Join(args, " "), ReferenceDate: ref})
	return writeResult(cmd.OutOrStdout(), flagOutput, result)
}

func runPoint(cmd *cobra.Command, args []string) error {
	if flagLat < -90 || flagLat > 90 || flagLon < -180 || flagLon > 180 {
		return fmt.Errorf("coordinate (%v, %v) out of range", flagLat, flagLon)
	}
	if flagDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	svc, err := loadServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(flagDays - 1))

	result := svc.pipeline.Point(ctx, flagLat, flagLon, start, end)
	return writeResult(cmd.OutOrStdout(), flagOutput, result)
}

func loadServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildServices(cfg)
}

// writeResult prints v as indented JSON or as YAML with the same field names.
func writeResult(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml", "yml":
		// JSON is valid YAML; re-encoding the parsed node keeps json field names and order.
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return err
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (valid: json, yaml)", format)
	}
}

func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
