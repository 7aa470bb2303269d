package impl

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/language"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/visionex-project/imagetranslator/impl/auth"
	"github.com/visionex-project/imagetranslator/impl/translation"
	pkgauth "github.com/visionex-project/imagetranslator/pkg/auth"
	pkghttp "github.com/visionex-project/imagetranslator/pkg/http"
)

// Handler serves the HTTP API. Translation routes require a bearer ID token when authClient is not nil.
func (s *server) Handler(authClient auth.Auth) http.Handler {
	mux := http.NewServeMux()
	protect := func(route string, handler http.HandlerFunc) http.Handler {
		var h http.Handler = handler
		if authClient != nil {
			h = requireToken(authClient, h)
		}
		return s.metrics.instrument(route, h)
	}

	mux.Handle("POST /v1/images:translate", protect("images:translate", s.handleTranslateImage))
	mux.Handle("POST /v1/text:translate", protect("text:translate", s.handleTranslateText))
	mux.Handle("GET /healthz", s.metrics.instrument("healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func requireToken(authClient auth.Auth, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := pkgauth.ExtractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			log.Printf("Rejected request without a valid authorization header: %v", err)
			pkghttp.WriteError(w, http.StatusUnauthorized)
			return
		}
		if _, err := authClient.Verify(r.Context(), token); err != nil {
			log.Printf("Failed to verify token: %v", err)
			pkghttp.WriteError(w, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleTranslateImage(w http.ResponseWriter, r *http.Request) {
	byteImage, target, cluster, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	response, err := s.TranslateImage(r.Context(), &TranslateImageRequest{Image: byteImage, TargetLanguage: target, Cluster: cluster})
	if err != nil {
		pkghttp.WriteError(w, httpStatus(err))
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, response)
}

func (s *server) handleTranslateText(w http.ResponseWriter, r *http.Request) {
	byteImage, target, cluster, ok := s.readRequest(w, r)
	if !ok {
		return
	}
	response, err := s.TranslateText(r.Context(), &TranslateTextRequest{Image: byteImage, TargetLanguage: target, Cluster: cluster})
	if err != nil {
		pkghttp.WriteError(w, httpStatus(err))
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, response)
}

// Reads the image and the "target_language" and "cluster" query parameters. Writes the error response itself.
func (s *server) readRequest(w http.ResponseWriter, r *http.Request) ([]byte, language.Tag, bool, bool) {
	query := r.URL.Query()

	target := s.options.DefaultTarget
	if value := query.Get("target_language"); value != "" {
		tag, err := translation.ParseLanguage(value)
		if err != nil {
			log.Printf("Invalid target language: %v", err)
			pkghttp.WriteError(w, http.StatusBadRequest)
			return nil, language.Und, false, false
		}
		target = tag
	}

	cluster := s.options.Cluster
	if value := query.Get("cluster"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid cluster flag %q: %v", value, err)
			pkghttp.WriteError(w, http.StatusBadRequest)
			return nil, language.Und, false, false
		}
		cluster = parsed
	}

	byteImage, err := pkghttp.ReadImage(r, s.options.MaxImageBytes)
	if err != nil {
		log.Printf("Failed to read image: %v", err)
		code := http.StatusBadRequest
		if errors.Is(err, pkghttp.ErrPayloadTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		pkghttp.WriteError(w, code)
		return nil, language.Und, false, false
	}
	return byteImage, target, cluster, true
}

func httpStatus(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.Canceled:
		// nginx's "client closed request".
		return 499
	default:
		return http.StatusInternalServerError
	}
}
