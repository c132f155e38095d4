package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/api/transport"
	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/pkg/httpcontext"
	"github.com/fastygo/sprintboard/repository"
	boardUC "github.com/fastygo/sprintboard/usecase/board"
	sprintUC "github.com/fastygo/sprintboard/usecase/sprint"
)

type SprintHandler struct {
	baseHandler
	sprints *sprintUC.UseCase
	boards  *boardUC.UseCase
}

func NewSprintHandler(sprints *sprintUC.UseCase, boards *boardUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SprintHandler {
	return &SprintHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sprints:     sprints,
		boards:      boards,
	}
}

// @Summary List sprints
// @Tags sprints
// @Router /api/v1/sprints [get]
func (h *SprintHandler) List(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprints, err := h.sprints.List(stdCtx, ownerID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if sprints == nil {
		sprints = []domain.Sprint{}
	}
	h.respondList(ctx, sprints, len(sprints))
}

// @Summary Create sprint
// @Tags sprints
// @Router /api/v1/sprints [post]
func (h *SprintHandler) Create(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	var req transport.SprintRequest
	if !h.decode(ctx, &req) {
		return
	}
	start, end, err := req.Dates()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprint, err := h.sprints.Create(stdCtx, ownerID, start, end, req.Force)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, sprint)
}

// @Summary Create the sprint after the last one
// @Tags sprints
// @Router /api/v1/sprints/next [post]
func (h *SprintHandler) CreateNext(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprint, err := h.sprints.CreateNext(stdCtx, ownerID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, sprint)
}

// @Summary Sprint containing today
// @Tags sprints
// @Router /api/v1/sprints/current [get]
func (h *SprintHandler) Current(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprint, err := h.sprints.Current(stdCtx, ownerID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if sprint == nil {
		h.respondError(ctx, domain.NewError(domain.ErrCodeNotFound, "no sprint contains today"))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sprint)
}

// @Summary Board of the current sprint, creating this week's sprint if needed
// @Tags sprints
// @Router /api/v1/sprints/active [get]
func (h *SprintHandler) Active(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprint, _, err := h.sprints.EnsureCurrent(stdCtx, ownerID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	board, err := h.boards.Build(stdCtx, ownerID, sprint.ID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, board)
}

// @Summary Find a sprint by start, end or a contained date
// @Tags sprints
// @Router /api/v1/sprints/find [get]
func (h *SprintHandler) Find(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	args := ctx.QueryArgs()
	var filter repository.SprintDateFilter
	for _, param := range []struct {
		name string
		dst  **time.Time
	}{
		{"start", &filter.Start},
		{"end", &filter.End},
		{"date", &filter.Containing},
	} {
		raw := string(args.Peek(param.name))
		if raw == "" {
			continue
		}
		day, err := domain.ParseDate(raw)
		if err != nil {
			h.respondError(ctx, domain.Invalid(param.name+" must be YYYY-MM-DD"))
			return
		}
		*param.dst = &day
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprint, err := h.sprints.FindByDate(stdCtx, ownerID, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if sprint == nil {
		h.respondError(ctx, domain.NewError(domain.ErrCodeNotFound, "no sprint matches"))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sprint)
}

// @Summary Sprint board
// @Tags sprints
// @Router /api/v1/sprints/{id} [get]
func (h *SprintHandler) Board(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	sprintID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	board, err := h.boards.Build(stdCtx, ownerID, sprintID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, board)
}

// @Summary Move a sprint
// @Tags sprints
// @Router /api/v1/sprints/{id} [put]
func (h *SprintHandler) Update(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	sprintID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var req transport.SprintRequest
	if !h.decode(ctx, &req) {
		return
	}
	start, end, err := req.Dates()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	sprint, err := h.sprints.Update(stdCtx, ownerID, sprintID, start, end)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, sprint)
}

// @Summary Delete a sprint without tasks
// @Tags sprints
// @Router /api/v1/sprints/{id} [delete]
func (h *SprintHandler) Delete(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	sprintID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.sprints.Delete(stdCtx, ownerID, sprintID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
