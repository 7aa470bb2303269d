package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/visionex-project/imagetranslator/impl"
	"github.com/visionex-project/imagetranslator/impl/compose"
	"github.com/visionex-project/imagetranslator/impl/font"
	"github.com/visionex-project/imagetranslator/pkg/env"
)

type compositorFlags struct {
	center     bool
	wrap       bool
	background string
	foreground string
}

type imageFlags struct {
	compositorFlags
	output    string
	lang      string
	saveText  string
	noCluster bool
}

func newImageCommand(s *settings) *cobra.Command {
	f := &imageFlags{}
	command := &cobra.Command{
		Use:   "image [input]",
		Short: "Translate the text of an image and save a translated copy",
		Long: `Translate the text of an image and save a translated copy.

Without an input path the command asks for the path and the target language.
The output format follows the extension of the output path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := env.LinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			inputPath, target, err := resolveInput(args, f.lang, prompt)
			if err != nil {
				return err
			}
			outputPath := f.output
			if outputPath == "" {
				outputPath = defaultOutputPath(inputPath)
			}

			if err := s.loadConfig(prompt); err != nil {
				return err
			}
			compositor, err := newCompositor(f.compositorFlags)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			c := &clients{}
			defer c.Close()
			svc, err := c.newService(ctx, s, compositor, impl.Storage{})
			if err != nil {
				return err
			}

			response, err := svc.TranslateFile(ctx, inputPath, outputPath, target, !f.noCluster)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Translated %d text blocks, saved to %s\n", len(response.Sentences), outputPath)

			if f.saveText != "" {
				if err := writeText(f.saveText, response); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved text to %s\n", f.saveText)
			}
			return nil
		},
	}

	command.Flags().StringVarP(&f.output, "output", "o", "", "output image path (default <name>_translated<ext>)")
	command.Flags().StringVarP(&f.lang, "lang", "l", "", "target language, e.g. Chinese, English, ja (default $TARGET_LANGUAGE or Chinese)")
	command.Flags().StringVar(&f.saveText, "save-text", "", "also save the original and translated text to this file")
	command.Flags().BoolVar(&f.noCluster, "no-cluster", false, "translate every recognized line on its own")
	command.Flags().BoolVar(&f.center, "center", false, "center translations in their boxes")
	command.Flags().BoolVar(&f.wrap, "wrap", false, "wrap translations to the box width")
	command.Flags().StringVar(&f.background, "background", "", "fill color of erased boxes, e.g. #ffffff")
	command.Flags().StringVar(&f.foreground, "foreground", "", "text color, e.g. #000000")
	return command
}

// resolveInput takes the input path from args, or asks for it and then for the language.
func resolveInput(args []string, lang string, prompt env.Prompter) (string, language.Tag, error) {
	var inputPath string
	if len(args) > 0 {
		inputPath = args[0]
	} else {
		answer, err := prompt("Image path")
		if err != nil {
			return "", language.Und, err
		}
		// Paths dragged into a terminal arrive quoted.
		inputPath = strings.Trim(answer, `"'`)
		if lang == "" {
			if lang, err = prompt("Target language (empty for default)"); err != nil {
				return "", language.Und, err
			}
		}
	}
	if inputPath == "" {
		return "", language.Und, errors.New("no image path given")
	}

	target, err := parseTarget(lang)
	if err != nil {
		return "", language.Und, err
	}
	return inputPath, target, nil
}

func newCompositor(f compositorFlags) (*compose.Compositor, error) {
	opts := compose.DefaultOptions()
	if f.center {
		opts.Placement = compose.PlaceCentered
	}
	opts.Wrap = f.wrap
	if f.background != "" {
		background, err := compose.ParseColor(f.background)
		if err != nil {
			return nil, err
		}
		opts.Background = background
	}
	if f.foreground != "" {
		foreground, err := compose.ParseColor(f.foreground)
		if err != nil {
			return nil, err
		}
		opts.Foreground = foreground
	}
	opts.FontScale = env.FloatVariable("FONT_SCALE", opts.FontScale)
	opts.MinFontSize = env.FloatVariable("MIN_FONT_SIZE", opts.MinFontSize)

	fonts := font.New(env.ListVariable("FONT_PATHS", font.PlatformCandidates()))
	return compose.New(fonts, opts), nil
}
