package debug

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/veritrace/tracecheck/pkg/capture"
)
import "github.com/gorilla/mux"

func CreateRouter(
	recorder capture.Recorder,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle(
		"/traces", TracesHandler(
			recorder,
			logger,
		),
	).Methods("GET")

	r.Handle(
		"/traces/{index}", TraceDetailHandler(
			recorder,
			logger,
		),
	).Methods("GET")

	return r
}
