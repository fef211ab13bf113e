package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/tideresonance/backend-go/internal/api"
	"github.com/bbernstein/tideresonance/backend-go/internal/refresh"
)

type SnapshotSource interface {
	Snapshot() refresh.Snapshot
}

// LiveHandler reports the refresh controller's latest snapshot.
type LiveHandler struct {
	source SnapshotSource
}

func NewLiveHandler(source SnapshotSource) *LiveHandler {
	return &LiveHandler{source: source}
}

func (h *LiveHandler) HandleRequest(_ context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	snap := h.source.Snapshot()
	return api.Success(api.NewLiveResponse(
		string(snap.Status),
		snap.IsLoading,
		liveErrorMessage(snap.Err),
		snap.LocationKey,
		snap.State,
	))
}
