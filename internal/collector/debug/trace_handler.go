package debug

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/veritrace/tracecheck/pkg/capture"
)

// TracesHandler creates a handler listing summaries of every captured trace
// in arrival order.
func TracesHandler(
	recorder capture.Recorder,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traces := recorder.Traces()
		summaries := make([]TraceSummaryDTO, len(traces))
		for i, trace := range traces {
			summaries[i] = toTraceSummaryDTO(i, trace)
		}

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(summaries)
		if err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
	}
}

// TraceDetailHandler creates a handler returning the full spans of one
// captured trace, addressed by its insertion index.
func TraceDetailHandler(
	recorder capture.Recorder,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexParam := mux.Vars(r)["index"]
		index, err := strconv.Atoi(indexParam)
		if err != nil {
			logger.Error("Error encountered when parsing trace index", zap.Error(err))
			HttpError(w, "Invalid trace index", http.StatusBadRequest, logger)
			return
		}

		traces := recorder.Traces()
		if index < 0 || index >= len(traces) {
			HttpError(w, "Trace not found", http.StatusNotFound, logger)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(toTraceDetailDTO(index, traces[index]))
		if err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
	}
}
