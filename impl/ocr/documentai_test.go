package ocr

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionex-project/imagetranslator/impl/layout"
)

type fakeDocumentAIClient struct {
	request  *documentaipb.ProcessRequest
	response *documentaipb.ProcessResponse
	err      error
}

func (f *fakeDocumentAIClient) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	f.request = req
	return f.response, f.err
}

func documentLine(start, end int64, left, top, right, bottom int32) *documentaipb.Document_Page_Line {
	return &documentaipb.Document_Page_Line{
		Layout: &documentaipb.Document_Page_Layout{
			TextAnchor: &documentaipb.Document_TextAnchor{
				TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
			},
			BoundingPoly: &documentaipb.BoundingPoly{Vertices: []*documentaipb.Vertex{
				{X: left, Y: top}, {X: right, Y: top}, {X: right, Y: bottom}, {X: left, Y: bottom},
			}},
		},
	}
}

func TestDocumentAI_Recognize(t *testing.T) {
	client := &fakeDocumentAIClient{response: &documentaipb.ProcessResponse{
		Document: &documentaipb.Document{
			Text: "你好 world\nNext\n",
			Pages: []*documentaipb.Document_Page{{Lines: []*documentaipb.Document_Page_Line{
				documentLine(0, 9, 5, 10, 105, 30),
				documentLine(9, 14, 5, 40, 60, 60),
			}}},
		},
	}}
	recognizer := NewDocumentAI(client, DocumentAISpec{ProjectID: "project", Location: "us", ProcessorID: "ocr"})

	fragments, err := recognizer.Recognize(context.Background(), pngBytes(t, 10, 10))

	require.NoError(t, err)
	assert.Equal(t, []layout.TextFragment{
		{Box: layout.BoundingBox{Top: 10, Left: 5, Width: 100, Height: 20}, Text: "你好 world"},
		{Box: layout.BoundingBox{Top: 40, Left: 5, Width: 55, Height: 20}, Text: "Next"},
	}, fragments)
	assert.Equal(t, "projects/project/locations/us/processors/ocr", client.request.GetName())
	assert.Equal(t, "image/png", client.request.GetRawDocument().GetMimeType())
}

func TestDocumentAI_Error(t *testing.T) {
	failure := errors.New("quota")
	recognizer := NewDocumentAI(&fakeDocumentAIClient{err: failure}, DocumentAISpec{})

	_, err := recognizer.Recognize(context.Background(), []byte("image"))

	assert.ErrorIs(t, err, failure)
}
