package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	gcs "cloud.google.com/go/storage"
	vision "cloud.google.com/go/vision/apiv1"
	"github.com/google/generative-ai-go/genai"
	"github.com/ridge/must/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/option"

	"github.com/visionex-project/imagetranslator/impl"
	"github.com/visionex-project/imagetranslator/impl/compose"
	implGenai "github.com/visionex-project/imagetranslator/impl/genai"
	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/impl/ocr"
	"github.com/visionex-project/imagetranslator/impl/storage"
	"github.com/visionex-project/imagetranslator/impl/translation"
	"github.com/visionex-project/imagetranslator/pkg/env"
	pkgOpenai "github.com/visionex-project/imagetranslator/pkg/openai"
)

// clients owns the external clients opened for one command run.
type clients struct {
	closers []io.Closer
	secrets *secretmanager.Client
}

func (c *clients) Close() {
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			log.Printf("Failed to close client: %v", err)
		}
	}
}

// apiKey reads name from the environment, or from GCP Secret Manager when <name>_SECRET_NAME is set.
func (c *clients) apiKey(ctx context.Context, name string) (string, error) {
	if value := os.Getenv(name); value != "" {
		return value, nil
	}
	secretName := os.Getenv(name + "_SECRET_NAME")
	if secretName == "" {
		return "", fmt.Errorf("%s is not set", name)
	}
	if c.secrets == nil {
		c.secrets = must.OK1(secretmanager.NewClient(ctx))
		c.closers = append(c.closers, c.secrets)
	}
	return secretFromGCP(ctx, c.secrets, secretName), nil
}

func (c *clients) recognizer(ctx context.Context, provider string) (ocr.Recognizer, error) {
	switch provider {
	case "baidu":
		apiKey, err := c.apiKey(ctx, "BAIDU_API_KEY")
		if err != nil {
			return nil, err
		}
		secretKey, err := c.apiKey(ctx, "BAIDU_SECRET_KEY")
		if err != nil {
			return nil, err
		}
		return ocr.NewBaidu(apiKey, secretKey, ocr.WithBaiduBaseURL(env.StringVariable("BAIDU_BASE_URL", ocr.DefaultBaiduBaseURL))), nil
	case "vision":
		visionClient := must.OK1(vision.NewImageAnnotatorClient(ctx))
		c.closers = append(c.closers, visionClient)
		return ocr.NewVision(visionClient), nil
	case "documentai":
		var opts []option.ClientOption
		if endpoint := os.Getenv("DOCUMENTAI_ENDPOINT"); endpoint != "" {
			opts = append(opts, option.WithEndpoint(endpoint))
		}
		documentaiClient := must.OK1(documentai.NewDocumentProcessorClient(ctx, opts...))
		c.closers = append(c.closers, documentaiClient)
		return ocr.NewDocumentAI(documentaiClient, ocr.DocumentAISpec{
			ProjectID:   env.RequiredStringVariable("GCP_PROJECT_ID"),
			Location:    env.RequiredStringVariable("DOCUMENTAI_LOCATION"),
			ProcessorID: env.RequiredStringVariable("DOCUMENTAI_PROCESSOR_ID"),
		}), nil
	case "tesseract":
		tesseract, err := ocr.NewTesseract(env.ListVariable("TESSERACT_LANGUAGES", nil)...)
		if err != nil {
			return nil, err
		}
		return tesseract, nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", provider)
	}
}

func (c *clients) translator(ctx context.Context, provider string) (translation.Translator, error) {
	config := translation.DeepSeekConfig()
	config.Timeout = time.Duration(env.IntVariable("TRANSLATION_TIMEOUT_SECONDS", int(config.Timeout/time.Second))) * time.Second
	config.MaxTokens = env.IntVariable("TRANSLATION_MAX_TOKENS", config.MaxTokens)

	switch provider {
	case "deepseek":
		apiKey, err := c.apiKey(ctx, "DEEPSEEK_API_KEY")
		if err != nil {
			return nil, err
		}
		config.Model = env.StringVariable("DEEPSEEK_MODEL", translation.DeepSeekModel)
		client := pkgOpenai.NewCompatibleAdapter(apiKey, env.StringVariable("DEEPSEEK_BASE_URL", translation.DeepSeekBaseURL))
		return translation.NewChatTranslator(client, config), nil
	case "openai":
		apiKey, err := c.apiKey(ctx, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		config.Model = env.StringVariable("OPENAI_MODEL", openai.GPT3Dot5Turbo)
		return translation.NewChatTranslator(pkgOpenai.NewAdapter(openai.NewClient(apiKey)), config), nil
	case "gemini":
		apiKey, err := c.apiKey(ctx, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		genaiClient := must.OK1(genai.NewClient(ctx, option.WithAPIKey(apiKey)))
		c.closers = append(c.closers, genaiClient)
		config.Model = env.StringVariable("GEMINI_MODEL", string(implGenai.GenaiModelFlash))
		return translation.NewChatTranslator(implGenai.New(genaiClient), config), nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", provider)
	}
}

// archive returns the GCS archive configuration. Archiving is off unless IMAGE_BUCKET is set.
func (c *clients) archive(ctx context.Context) impl.Storage {
	bucket := os.Getenv("IMAGE_BUCKET")
	if bucket == "" {
		return impl.Storage{}
	}
	storageClient := must.OK1(gcs.NewClient(ctx))
	c.closers = append(c.closers, storageClient)
	return impl.Storage{Client: storage.New(storageClient), ImageBucket: bucket}
}

// newService wires the selected providers into a translation server.
func (c *clients) newService(ctx context.Context, s *settings, compositor *compose.Compositor, archive impl.Storage) (service, error) {
	recognizer, err := c.recognizer(ctx, s.ocr())
	if err != nil {
		return nil, err
	}
	translator, err := c.translator(ctx, s.translator())
	if err != nil {
		return nil, err
	}

	options := impl.DefaultOptions()
	options.BatchSize = env.IntVariable("TRANSLATION_BATCH_SIZE", options.BatchSize)
	options.MaxRetries = uint64(env.IntVariable("MAX_RETRIES", int(options.MaxRetries)))
	options.MaxImageBytes = int64(env.IntVariable("MAX_IMAGE_BYTES", int(options.MaxImageBytes)))
	options.ClusterOptions = []layout.Option{
		layout.WithMaxLineGap(env.FloatVariable("CLUSTER_MAX_LINE_GAP", layout.DefaultMaxLineGap)),
		layout.WithMaxXDiff(env.FloatVariable("CLUSTER_MAX_X_DIFF", layout.DefaultMaxXDiff)),
		layout.WithStrategy(layout.Strategy(env.StringVariable("CLUSTER_STRATEGY", string(layout.StrategyGreedy)))),
	}
	if value := os.Getenv("TARGET_LANGUAGE"); value != "" {
		options.DefaultTarget, err = translation.ParseLanguage(value)
		if err != nil {
			return nil, err
		}
	}

	log.Printf("Using %s for recognition and %s for translation", recognizer.Name(), s.translator())
	return impl.New(recognizer, translator, compositor, archive, options), nil
}

func secretFromGCP(ctx context.Context, secretmanagerClient *secretmanager.Client, secretName string) string {
	secretValue := must.OK1(secretmanagerClient.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
			env.RequiredStringVariable("GCP_PROJECT_ID"),
			secretName,
		),
	}))
	return string(secretValue.Payload.Data)
}
