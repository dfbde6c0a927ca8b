package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	appai "github.com/bryanwahyu/medscan/internal/application/ai"
	"github.com/bryanwahyu/medscan/internal/config"
	"github.com/bryanwahyu/medscan/internal/domain/scans"
)

// NewAnalyzeCmd runs one image through the model without storing anything.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a local image and print the parsed result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.AI.APIKey == "" {
				return config.ErrMissingAIKey
			}
			raw, _ := cmd.Flags().GetBool("raw")

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			img := scans.Image{
				FileName:    filepath.Base(args[0]),
				ContentType: mimetype.Detect(data).String(),
				Data:        data,
			}
			if err := scans.ValidateImage(img, cfg.Upload.MaxBytes); err != nil {
				return err
			}

			svc := appai.NewService(newAIClient(cfg), cfg.AI.Timeout)
			res, completion, err := svc.Analyze(cmd.Context(), img)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), completion)
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().Bool("raw", false, "print the model completion instead of the parsed result")
	return cmd
}
