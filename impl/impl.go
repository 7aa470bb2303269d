package impl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"github.com/visionex-project/imagetranslator/impl/compose"
	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/impl/ocr"
	"github.com/visionex-project/imagetranslator/impl/storage"
	"github.com/visionex-project/imagetranslator/impl/translation"
)

type server struct {
	// Finds text fragments and their bounding boxes in an image.
	recognizer ocr.Recognizer

	// Translates the text of every layout unit.
	translator translation.Translator

	// Erases recognized text and draws the translations in its place.
	compositor *compose.Compositor

	// Storage is a collection of Google Cloud Storage related configurations.
	storage Storage

	options Options

	registry *prometheus.Registry
	metrics  *metrics
}

type Storage struct {
	// A client for Google Cloud Storage. Nil disables archiving.
	Client storage.Client

	// The bucket name for storing the images before and after translation.
	ImageBucket string
}

type Options struct {
	// Used when a request does not name a target language.
	DefaultTarget language.Tag

	// Group recognized lines into paragraphs unless a request says otherwise.
	Cluster bool

	// Tunes the paragraph clustering.
	ClusterOptions []layout.Option

	// Units per translation request. Zero sends all units of an image together.
	BatchSize int

	// Used to delay the next request when the external API fails.
	BackoffDuration time.Duration

	// Retries after the first failed attempt of a collaborator call.
	MaxRetries uint64

	// Largest accepted upload in bytes.
	MaxImageBytes int64
}

func DefaultOptions() Options {
	return Options{
		DefaultTarget:   translation.DefaultTarget,
		Cluster:         true,
		BackoffDuration: 2 * time.Second,
		MaxRetries:      4,
		MaxImageBytes:   10 << 20,
	}
}

func New(
	recognizer ocr.Recognizer,
	translator translation.Translator,
	compositor *compose.Compositor,
	storage Storage,
	options Options,
) *server {
	defaults := DefaultOptions()
	if options.DefaultTarget == language.Und {
		options.DefaultTarget = defaults.DefaultTarget
	}
	if options.MaxImageBytes <= 0 {
		options.MaxImageBytes = defaults.MaxImageBytes
	}

	registry := prometheus.NewRegistry()
	return &server{
		recognizer: recognizer,
		translator: translator,
		compositor: compositor,
		storage:    storage,
		options:    options,
		registry:   registry,
		metrics:    newMetrics(registry),
	}
}
