package impl

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visionex-project/imagetranslator/impl/ocr"
	"github.com/visionex-project/imagetranslator/impl/translation"
)

// Baidu "Open api qps request limit reached".
const baiduQPSLimit = "18"

func (s *server) backOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.options.BackoffDuration), s.options.MaxRetries),
		ctx,
	)
}

// Marks err as permanent unless another attempt could succeed.
func retryable(err error) error {
	if isTransient(err) {
		return err
	}
	return backoff.Permanent(err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, translation.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var backendErr *ocr.BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Code == baiduQPSLimit || isRetryableHTTPCode(backendErr.Code)
	}
	var translationErr *translation.Error
	if errors.As(err, &translationErr) {
		return isRetryableHTTPCode(translationErr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
			return true
		}
	}
	return false
}

func isRetryableHTTPCode(code string) bool {
	return code == "429" || (len(code) == 3 && strings.HasPrefix(code, "5"))
}
