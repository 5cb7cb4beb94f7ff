package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/portalos/pkg/domain/model"
	"github.com/secmon-lab/portalos/pkg/domain/model/auth"
	"github.com/secmon-lab/portalos/pkg/domain/types"
	"github.com/secmon-lab/portalos/pkg/utils/errutil"
)

type loadEvent struct {
	Generation uint64 `json:"generation"`
}

type loadEventResponse struct {
	Applied bool `json:"applied"`
}

// writeViewError answers a failed tab host call
func writeViewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrUnknownViewer):
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "unknown viewer, reload the portal"})
	case errors.Is(err, model.ErrViewNotVisible):
		writeJSON(w, r, http.StatusForbidden, errorResponse{Error: "view is not visible"})
	default:
		errutil.HandleHTTP(r.Context(), w, err, http.StatusInternalServerError)
	}
}

func viewParam(w http.ResponseWriter, r *http.Request) (types.ViewID, bool) {
	id, err := types.ParseViewID(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "unknown view"})
		return "", false
	}
	return id, true
}

func (s *Server) viewsSnapshotHandler(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.uc.View.Snapshot(r.Context(), viewerFromRequest(r), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snapshot)
}

func (s *Server) viewsRefreshHandler(w http.ResponseWriter, r *http.Request) {
	state, err := s.uc.View.Refresh(r.Context(), viewerFromRequest(r), auth.IdentityFromContext(r.Context()))
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) viewSelectHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := viewParam(w, r)
	if !ok {
		return
	}
	snapshot, err := s.uc.View.Select(r.Context(), viewerFromRequest(r), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snapshot)
}

func (s *Server) viewRetryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := viewParam(w, r)
	if !ok {
		return
	}
	state, err := s.uc.View.Retry(r.Context(), viewerFromRequest(r), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		writeViewError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

func (s *Server) viewLoadedHandler(w http.ResponseWriter, r *http.Request) {
	s.loadEventHandler(w, r, model.ViewReady)
}

func (s *Server) viewFailedHandler(w http.ResponseWriter, r *http.Request) {
	s.loadEventHandler(w, r, model.ViewError)
}

func (s *Server) loadEventHandler(w http.ResponseWriter, r *http.Request, status model.ViewStatus) {
	id, ok := viewParam(w, r)
	if !ok {
		return
	}

	var event loadEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&event); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "malformed load event"})
		return
	}
	if event.Generation == 0 {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "generation is required"})
		return
	}

	ctx := r.Context()
	viewer := viewerFromRequest(r)
	identity := auth.IdentityFromContext(ctx)

	var (
		applied bool
		err     error
	)
	switch status {
	case model.ViewReady:
		applied, err = s.uc.View.MarkLoaded(ctx, viewer, identity, id, event.Generation)
	case model.ViewError:
		applied, err = s.uc.View.MarkFailed(ctx, viewer, identity, id, event.Generation)
	default:
		err = goerr.New("unsupported load status", goerr.V(model.StatusKey, status))
	}
	if err != nil {
		writeViewError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, loadEventResponse{Applied: applied})
}
