package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/visionex-project/imagetranslator/impl"
	"github.com/visionex-project/imagetranslator/impl/auth"
	"github.com/visionex-project/imagetranslator/impl/translation"
	"github.com/visionex-project/imagetranslator/pkg/env"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

const (
	defaultEnvFile             = "api-data.env"
	defaultOCRProvider         = "baidu"
	defaultTranslationProvider = "deepseek"
)

const guidance = `Please check:
  - the API keys in your env file
  - your network connection
  - the image path`

// service is the part of the translation server the commands drive.
type service interface {
	TranslateText(ctx context.Context, request *impl.TranslateTextRequest) (*impl.TranslateTextResponse, error)
	TranslateFile(ctx context.Context, inputPath string, outputPath string, target language.Tag, cluster bool) (*impl.TranslateTextResponse, error)
	Handler(authClient auth.Auth) http.Handler
}

// settings shared by every subcommand.
type settings struct {
	envFile             string
	ocrProvider         string
	translationProvider string
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, guidance)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree. Every call returns fresh flag state.
func NewRootCommand() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:   "imagetranslator",
		Short: "Translate the text inside images",
		Long: `Recognizes the text of an image, groups lines into paragraphs, translates them
and draws the translations over the original text.

Examples:
  imagetranslator image menu.jpg --lang English
  imagetranslator text receipt.png --lang ja --save-text receipt.txt
  imagetranslator serve --port 8080`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&s.envFile, "env-file", env.StringVariable("ENV_FILE", defaultEnvFile), "env file holding API keys, created interactively when missing")
	root.PersistentFlags().StringVar(&s.ocrProvider, "ocr", "", "OCR provider: baidu, vision, documentai or tesseract (default $OCR_PROVIDER or baidu)")
	root.PersistentFlags().StringVar(&s.translationProvider, "translator", "", "translation provider: deepseek, openai or gemini (default $TRANSLATION_PROVIDER or deepseek)")

	root.AddCommand(newImageCommand(s), newTextCommand(s), newServeCommand(s))
	return root
}

func (s *settings) ocr() string {
	if s.ocrProvider != "" {
		return strings.ToLower(s.ocrProvider)
	}
	return strings.ToLower(env.StringVariable("OCR_PROVIDER", defaultOCRProvider))
}

func (s *settings) translator() string {
	if s.translationProvider != "" {
		return strings.ToLower(s.translationProvider)
	}
	return strings.ToLower(env.StringVariable("TRANSLATION_PROVIDER", defaultTranslationProvider))
}

// loadConfig loads the env file. With a prompter, a missing file is created from the answers to
// the variables the selected providers need.
func (s *settings) loadConfig(prompt env.Prompter) error {
	if prompt == nil {
		env.Load(s.envFile)
		return nil
	}
	names := utils.Filter(promptedVariables(s.ocr(), s.translator()), func(name string) bool {
		return os.Getenv(name) == ""
	})
	if len(names) == 0 {
		env.Load(s.envFile)
		return nil
	}
	return env.LoadOrCreate(s.envFile, names, prompt)
}

// promptedVariables lists the variables a first run asks for.
func promptedVariables(ocrProvider string, translationProvider string) []string {
	names := []string{}
	switch ocrProvider {
	case "baidu":
		names = append(names, "BAIDU_API_KEY", "BAIDU_SECRET_KEY")
	case "documentai":
		names = append(names, "GCP_PROJECT_ID", "DOCUMENTAI_LOCATION", "DOCUMENTAI_PROCESSOR_ID")
	}
	switch translationProvider {
	case "deepseek":
		names = append(names, "DEEPSEEK_API_KEY")
	case "openai":
		names = append(names, "OPENAI_API_KEY")
	case "gemini":
		names = append(names, "GEMINI_API_KEY")
	}
	return names
}

// parseTarget reads a language flag or answer. Empty means the server default.
func parseTarget(value string) (language.Tag, error) {
	if strings.TrimSpace(value) == "" {
		return language.Und, nil
	}
	return translation.ParseLanguage(value)
}

// defaultOutputPath places the result next to the input: menu.jpg -> menu_translated.jpg.
func defaultOutputPath(inputPath string) string {
	extension := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, extension) + "_translated" + extension
}

func writeText(path string, response *impl.TranslateTextResponse) error {
	content := fmt.Sprintf("Original:\n%s\n\nTranslation:\n%s\n", response.OriginalText, response.TranslatedText)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to save text: %w", err)
	}
	return nil
}
