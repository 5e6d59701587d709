package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/batch"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/httpkit"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/errors"
)

// FramesHeader carries the frame count the returned workflow was built with.
const FramesHeader = "X-Frame-Count"

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) error {
	httpkit.WriteJSON(w, http.StatusOK, h.progress.Snapshot())
	return nil
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) error {
	st, err := h.item(r)
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, st)
	return nil
}

// GetItemWorkflow returns the job graph the item submits. If the run has
// not reached the item yet, its audio is probed now.
func (h *Handler) GetItemWorkflow(w http.ResponseWriter, r *http.Request) error {
	st, err := h.item(r)
	if err != nil {
		return err
	}

	frames := st.Frames
	if frames == 0 {
		frames, err = h.workflows.Frames(r.Context(), st.Item)
		if err != nil {
			return err
		}
	}

	body, err := h.workflows.Graph(st.Item, frames).JSON()
	if err != nil {
		return errors.Wrap(err, "status.workflow", "encode workflow")
	}
	w.Header().Set(FramesHeader, strconv.Itoa(frames))
	httpkit.WriteRawJSON(w, http.StatusOK, body)
	return nil
}

func (h *Handler) item(r *http.Request) (batch.ItemStatus, error) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil || index < 1 {
		return batch.ItemStatus{}, errors.Validationf("index must be a positive integer, got %q", raw).
			WithField("field", "index")
	}
	st, ok := h.progress.Item(index)
	if !ok {
		return batch.ItemStatus{}, errors.NotFound("item", raw)
	}
	return st, nil
}
