package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/visionex-project/imagetranslator/impl"
	"github.com/visionex-project/imagetranslator/pkg/env"
)

func newTextCommand(s *settings) *cobra.Command {
	var lang, saveText string
	var noCluster bool
	command := &cobra.Command{
		Use:   "text [input]",
		Short: "Print the recognized and translated text of an image",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := env.LinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			inputPath, target, err := resolveInput(args, lang, prompt)
			if err != nil {
				return err
			}
			byteImage, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			if err := s.loadConfig(prompt); err != nil {
				return err
			}
			ctx := cmd.Context()
			c := &clients{}
			defer c.Close()
			// Nothing is drawn, so no compositor.
			svc, err := c.newService(ctx, s, nil, impl.Storage{})
			if err != nil {
				return err
			}

			response, err := svc.TranslateText(ctx, &impl.TranslateTextRequest{Image: byteImage, TargetLanguage: target, Cluster: !noCluster})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Original:\n%s\n\nTranslation:\n%s\n", response.OriginalText, response.TranslatedText)

			if saveText != "" {
				if err := writeText(saveText, response); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved text to %s\n", saveText)
			}
			return nil
		},
	}

	command.Flags().StringVarP(&lang, "lang", "l", "", "target language, e.g. Chinese, English, ja (default $TARGET_LANGUAGE or Chinese)")
	command.Flags().StringVar(&saveText, "save-text", "", "save the original and translated text to this file")
	command.Flags().BoolVar(&noCluster, "no-cluster", false, "translate every recognized line on its own")
	return command
}
