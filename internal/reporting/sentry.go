package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/Amund211/collapser/internal/config"
	"github.com/Amund211/collapser/internal/logging"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

var ipv6HostRx = regexp.MustCompile(`\[:{0,2}([0-9a-f]{0,4}:?){1,8}\]:\d+`)
var ipv4HostRx = regexp.MustCompile(`\b(\d{1,3}\.){3}\d{1,3}:\d+`)
var keyParamRx = regexp.MustCompile(`([?&]key=)[^&"\s]*`)

// Strip request specific values so similar errors are grouped together
func sanitizeError(err string) string {
	err = ipv6HostRx.ReplaceAllString(err, "<host>")
	err = ipv4HostRx.ReplaceAllString(err, "<host>")
	err = keyParamRx.ReplaceAllString(err, "${1}<key>")
	return err
}

func Report(ctx context.Context, err error, extras ...map[string]string) {
	logger := logging.FromContext(ctx)

	if err == nil {
		err = errors.New("No error provided")
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		logger.WarnContext(ctx, "Failed to get Sentry hub from context", slog.String("error", err.Error()), slog.Any("extras", extras))
		return
	}

	logger.ErrorContext(
		ctx,
		"Reporting error to Sentry",
		slog.String("error", err.Error()),
		slog.Any("extras", extras),
	)

	hub.WithScope(func(scope *sentry.Scope) {
		meta := MetaFromContext(ctx)
		scope.SetTags(meta.tags)
		for key, value := range meta.extras {
			scope.SetExtra(key, value)
		}
		if meta.userID != "" {
			scope.SetUser(sentry.User{
				ID: meta.userID,
			})
		}
		if !meta.startedAt.IsZero() {
			scope.SetExtra("secondsSinceStart", time.Since(meta.startedAt).Seconds())
		}

		for _, extra := range extras {
			for key, value := range extra {
				scope.SetExtra(key, value)
			}
		}

		scope.SetFingerprint([]string{"{{ default }}", sanitizeError(err.Error())})
		hub.CaptureException(err)
	})
}

// NewAddMetaMiddleware tags reported errors with the port name and request info
func NewAddMetaMiddleware(port string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userAgent := r.UserAgent()
			if userAgent == "" {
				userAgent = "<missing>"
			}

			ctx = AddTagsToContext(ctx,
				map[string]string{
					"port":       port,
					"userAgent":  userAgent,
					"methodPath": fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				},
			)

			ctx = setStartedAtInContext(ctx, time.Now())

			next(w, r.WithContext(ctx))
		}
	}
}

func InitSentryMiddleware(sentryDSN string, environment string) (func(http.HandlerFunc) http.HandlerFunc, func(), error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              sentryDSN,
		Environment:      environment,
		EnableTracing:    true,
		TracesSampleRate: 1.0 / 100.0,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}

	sentryHandler := sentryhttp.New(sentryhttp.Options{})

	middleware := func(next http.HandlerFunc) http.HandlerFunc {
		return sentryHandler.HandleFunc(next)
	}

	flush := func() {
		sentry.Flush(5 * time.Second)
	}

	return middleware, flush, nil
}

func NewSentryMiddlewareOrMock(conf config.Config) (func(http.HandlerFunc) http.HandlerFunc, func(), error) {
	if conf.SentryDSN() != "" {
		environment := "production"
		if conf.IsStaging() {
			environment = "staging"
		} else if conf.IsDevelopment() {
			environment = "development"
		}
		return InitSentryMiddleware(conf.SentryDSN(), environment)
	}

	if conf.IsDevelopment() {
		middleware := func(next http.HandlerFunc) http.HandlerFunc {
			return next
		}
		flush := func() {}
		return middleware, flush, nil
	}

	return nil, nil, fmt.Errorf("Missing Sentry DSN in non-development environment")
}
