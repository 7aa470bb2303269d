package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/ridge/must/v2"
	"github.com/spf13/cobra"

	"github.com/visionex-project/imagetranslator/impl/auth"
	"github.com/visionex-project/imagetranslator/pkg/env"
)

const defaultPort = 8080

func newServeCommand(s *settings) *cobra.Command {
	var port int
	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation HTTP API",
		Long: `Serve the translation HTTP API.

Routes:
  POST /v1/images:translate  translated image as a data URI plus the sentences
  POST /v1/text:translate    recognized and translated text
  GET  /healthz
  GET  /metrics              Prometheus metrics

Set AUTH_ENABLED=true to require Firebase ID tokens, and IMAGE_BUCKET to archive images in GCS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.loadConfig(nil); err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = env.IntVariable("PORT", port)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			compositor, err := newCompositor(compositorFlags{
				center:     env.StringVariable("PLACEMENT", "") == "center",
				wrap:       env.BoolVariable("WRAP_TEXT", false),
				background: os.Getenv("BACKGROUND_COLOR"),
				foreground: os.Getenv("FOREGROUND_COLOR"),
			})
			if err != nil {
				return err
			}

			c := &clients{}
			defer c.Close()
			svc, err := c.newService(ctx, s, compositor, c.archive(ctx))
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           svc.Handler(newAuth(ctx)),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Printf("Failed to shut down server: %v", err)
				}
			}()

			log.Printf("Image translator listening on port %d", port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	command.Flags().IntVarP(&port, "port", "p", defaultPort, "listen port, overrides $PORT")
	return command
}

// newAuth returns the Firebase token verifier, or nil when AUTH_ENABLED is not set.
func newAuth(ctx context.Context) auth.Auth {
	if !env.BoolVariable("AUTH_ENABLED", false) {
		return nil
	}
	app := must.OK1(firebase.NewApp(ctx, &firebase.Config{ProjectID: env.RequiredStringVariable("GCP_PROJECT_ID")}))
	firebaseClient := must.OK1(app.Auth(ctx))
	return auth.New(firebaseClient, env.ListVariable("ALLOWED_EMAIL_DOMAINS", nil))
}
