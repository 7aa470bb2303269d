package ocr

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"

	"github.com/visionex-project/imagetranslator/impl/layout"
	"github.com/visionex-project/imagetranslator/pkg/utils"
)

// DocumentAIClient is an interface for the DocumentProcessorClient.
// Ref: https://pkg.go.dev/cloud.google.com/go/documentai
// This interface is used for mocking the documentai.DocumentProcessorClient in tests.
type DocumentAIClient interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

// DocumentAISpec names the OCR processor.
type DocumentAISpec struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

func (s DocumentAISpec) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", s.ProjectID, s.Location, s.ProcessorID)
}

// DocumentAI recognizes text with a Document AI OCR processor and reports one fragment per page line.
type DocumentAI struct {
	client DocumentAIClient
	spec   DocumentAISpec
}

func NewDocumentAI(client DocumentAIClient, spec DocumentAISpec) *DocumentAI {
	return &DocumentAI{client: client, spec: spec}
}

func (d *DocumentAI) Name() string {
	return "documentai"
}

func (d *DocumentAI) Recognize(ctx context.Context, byteImage []byte) ([]layout.TextFragment, error) {
	request := &documentaipb.ProcessRequest{
		Name: d.spec.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  byteImage,
				MimeType: http.DetectContentType(byteImage),
			},
		},
	}
	response, err := d.client.ProcessDocument(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to process document: %w", err)
	}
	return toLineFragmentsFromDocument(response.GetDocument()), nil
}

// Document structure:
// Document
//
//	└── Pages []Document_Page
//	     └── Lines []Document_Page_Line
//	          └── Layout
//	               ├── TextAnchor
//	               │    └── TextSegments []TextAnchor_TextSegment (StartIndex, EndIndex into Document.Text)
//	               └── BoundingPoly
//	                    └── Vertices []Vertex (X, Y)
func toLineFragmentsFromDocument(document *documentaipb.Document) []layout.TextFragment {
	text := []rune(document.GetText())
	return utils.FlatMap(document.GetPages(), func(page *documentaipb.Document_Page) []layout.TextFragment {
		return utils.Map(page.GetLines(), func(line *documentaipb.Document_Page_Line) layout.TextFragment {
			lineText := strings.Join(utils.Map(line.GetLayout().GetTextAnchor().GetTextSegments(), func(segment *documentaipb.Document_TextAnchor_TextSegment) string {
				start := min(int(segment.GetStartIndex()), len(text))
				end := min(int(segment.GetEndIndex()), len(text))
				if start >= end {
					return ""
				}
				return string(text[start:end])
			}), "")

			return layout.TextFragment{
				Box: boxFromVertices(utils.Map(line.GetLayout().GetBoundingPoly().GetVertices(), func(v *documentaipb.Vertex) vertex {
					return vertex{x: int(v.GetX()), y: int(v.GetY())}
				})),
				Text: strings.TrimSpace(lineText),
			}
		})
	})
}
