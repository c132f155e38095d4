package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/sprintboard/api/transport"
	"github.com/fastygo/sprintboard/domain"
	"github.com/fastygo/sprintboard/pkg/httpcontext"
	scheduleUC "github.com/fastygo/sprintboard/usecase/schedule"
)

type ScheduleHandler struct {
	baseHandler
	uc *scheduleUC.UseCase
}

func NewScheduleHandler(uc *scheduleUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List schedule rows of a sprint, or the recurring rows
// @Tags schedule
// @Router /api/v1/sprints/{id}/schedule [get]
func (h *ScheduleHandler) List(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	sprintID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	args := ctx.QueryArgs()

	scope := domain.ForSprint(sprintID)
	if args.GetBool("recurring") {
		scope = domain.RecurringScope()
	}

	var filter domain.SlotFilter
	if raw := string(args.Peek("task_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(ctx, domain.Invalid("task_id must be an integer"))
			return
		}
		filter.TaskID = &id
	}
	if raw := string(args.Peek("day")); raw != "" {
		day, err := domain.ParseDate(raw)
		if err != nil {
			h.respondError(ctx, domain.Invalid("day must be YYYY-MM-DD"))
			return
		}
		filter.Day = &day
	}
	if raw := string(args.Peek("hour")); raw != "" {
		hour, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(ctx, domain.Invalid("hour must be an integer"))
			return
		}
		filter.Hour = &hour
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	slots, err := h.uc.Filtered(stdCtx, ownerID, scope, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, slots, len(slots))
}

// @Summary Schedule a task into a slot
// @Tags schedule
// @Router /api/v1/sprints/{id}/schedule [post]
func (h *ScheduleHandler) Schedule(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	sprintID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	var body transport.ScheduleRequest
	if !h.decode(ctx, &body) {
		return
	}
	req, err := body.ToDomain(sprintID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	slot, err := h.uc.Schedule(stdCtx, ownerID, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, slot)
}

// @Summary Remove a schedule row
// @Tags schedule
// @Router /api/v1/sprints/{id}/schedule/{schedule_id} [delete]
func (h *ScheduleHandler) Unschedule(ctx *fasthttp.RequestCtx) {
	ownerID, ok := h.ownerID(ctx)
	if !ok {
		return
	}
	sprintID, ok := h.pathID(ctx, "id")
	if !ok {
		return
	}
	scheduleID, ok := h.pathID(ctx, "schedule_id")
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	removed, err := h.uc.Unschedule(stdCtx, ownerID, sprintID, scheduleID, ctx.QueryArgs().GetBool("recurring"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, removed)
}
