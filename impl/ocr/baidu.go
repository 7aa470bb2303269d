package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/visionex-project/imagetranslator/impl/layout"
)

const DefaultBaiduBaseURL = "https://aip.baidubce.com"

// Tokens are refreshed this long before Baidu expires them.
const tokenExpiryMargin = time.Minute

// Baidu recognizes text with the Baidu AI Cloud "general" OCR endpoint, which reports a location per line.
type Baidu struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

type BaiduOption func(*Baidu)

func WithBaiduBaseURL(baseURL string) BaiduOption {
	return func(b *Baidu) { b.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithBaiduHTTPClient(client *http.Client) BaiduOption {
	return func(b *Baidu) { b.httpClient = client }
}

func NewBaidu(apiKey string, secretKey string, opts ...BaiduOption) *Baidu {
	b := &Baidu{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    DefaultBaiduBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Baidu) Name() string {
	return "baidu"
}

type baiduTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type baiduOCRResponse struct {
	ErrorCode   int64                 `json:"error_code"`
	ErrorMsg    string                `json:"error_msg"`
	WordsResult []layout.TextFragment `json:"words_result"`
}

func (b *Baidu) Recognize(ctx context.Context, image []byte) ([]layout.TextFragment, error) {
	token, err := b.token(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("image", base64.StdEncoding.EncodeToString(image))
	endpoint := fmt.Sprintf("%s/rest/2.0/ocr/v1/general?access_token=%s", b.baseURL, url.QueryEscape(token))

	var response baiduOCRResponse
	if err := b.postForm(ctx, endpoint, form, &response); err != nil {
		return nil, err
	}
	if response.ErrorCode != 0 {
		return nil, &BackendError{Backend: "baidu", Code: strconv.FormatInt(response.ErrorCode, 10), Message: response.ErrorMsg}
	}
	if response.WordsResult == nil {
		return []layout.TextFragment{}, nil
	}
	return response.WordsResult, nil
}

// Returns a cached access token, requesting a new one with the client credentials grant when it is missing or about to expire.
func (b *Baidu) token(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.accessToken != "" && b.now().Before(b.expiresAt) {
		return b.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", b.apiKey)
	form.Set("client_secret", b.secretKey)

	var response baiduTokenResponse
	if err := b.postForm(ctx, b.baseURL+"/oauth/2.0/token", form, &response); err != nil {
		return "", err
	}
	if response.AccessToken == "" {
		code := response.Error
		if code == "" {
			code = "no_token"
		}
		return "", &BackendError{Backend: "baidu", Code: code, Message: response.ErrorDescription}
	}

	b.accessToken = response.AccessToken
	b.expiresAt = b.now().Add(time.Duration(response.ExpiresIn)*time.Second - tokenExpiryMargin)
	return b.accessToken, nil
}

func (b *Baidu) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := b.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("baidu request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read baidu response: %w", err)
	}
	// Baidu reports most failures with 200 and an error payload, so the body is decoded first.
	if err := json.Unmarshal(body, out); err != nil {
		if response.StatusCode != http.StatusOK {
			return &BackendError{Backend: "baidu", Code: strconv.Itoa(response.StatusCode), Message: http.StatusText(response.StatusCode)}
		}
		return fmt.Errorf("failed to decode baidu response: %w", err)
	}
	return nil
}
