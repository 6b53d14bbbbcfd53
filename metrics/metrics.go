package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	Updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubbot_updates_total",
			Help: "Telegram updates handled, by kind",
		},
		[]string{"kind"},
	)

	QuizAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubbot_quiz_answers_total",
			Help: "Quiz answers by outcome",
		},
		[]string{"outcome"},
	)

	QuizRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "clubbot_quiz_rejected_answers_total",
			Help: "Quiz answers refused because the question was already answered or the keyboard was stale",
		},
	)

	QuizCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubbot_quiz_completed_total",
			Help: "Completed quizzes by grade",
		},
		[]string{"grade"},
	)

	QuizPercentage = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clubbot_quiz_result_percentage",
			Help:    "Final quiz percentages",
			Buckets: []float64{20, 40, 60, 80, 100},
		},
	)

	AssistantReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubbot_assistant_replies_total",
			Help: "Assistant replies by matched topic",
		},
		[]string{"topic"},
	)

	FormSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clubbot_form_submissions_total",
			Help: "Form submissions by form and result",
		},
		[]string{"form", "result"},
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Updates, QuizAnswers, QuizRejected, QuizCompleted, QuizPercentage, AssistantReplies, FormSubmissions)
	})
}

// NewRouter serves /metrics and /healthz
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Serve runs the metrics endpoint on addr until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string, log *zap.Logger) error {
	if addr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
