package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/http/middleware"
	"github.com/xavierca1/sales-operator/internal/usecase"
)

type TaskHandler struct {
	Tasks *usecase.TaskService
}

func NewTaskHandler(tasks *usecase.TaskService) *TaskHandler {
	return &TaskHandler{Tasks: tasks}
}

// taskResponse renders the due date as a plain day.
type taskResponse struct {
	*entity.Task
	DueDate *string  `json:"due_date,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}

func toTaskResponse(t *entity.Task) taskResponse {
	resp := taskResponse{Task: t}
	if t.DueDate != nil {
		day := t.DueDate.Format(dateLayout)
		resp.DueDate = &day
	}
	return resp
}

func toTaskResponses(tasks []*entity.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

type createTaskRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	CustomerName     string   `json:"customer_name"`
	CustomerTier     string   `json:"customer_tier"`
	PotentialRevenue *float64 `json:"potential_revenue"`
	DueDate          string   `json:"due_date"`
	NextFollowupDate string   `json:"next_followup_date"`
	Type             string   `json:"type"`
}

func (req createTaskRequest) input() (entity.NewTaskInput, error) {
	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return entity.NewTaskInput{}, err
	}
	followup, err := parseTimestamp("next_followup_date", req.NextFollowupDate)
	if err != nil {
		return entity.NewTaskInput{}, err
	}
	return entity.NewTaskInput{
		Title:            req.Title,
		Description:      req.Description,
		CustomerName:     req.CustomerName,
		CustomerTier:     entity.Tier(req.CustomerTier),
		PotentialRevenue: req.PotentialRevenue,
		DueDate:          due,
		NextFollowupDate: followup,
		Type:             entity.TaskType(req.Type),
	}, nil
}

// updateTaskRequest is a partial update. Absent fields are left alone; an
// empty string clears an optional text or date field.
type updateTaskRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	CustomerName     *string  `json:"customer_name"`
	CustomerTier     *string  `json:"customer_tier"`
	PotentialRevenue *float64 `json:"potential_revenue"`
	DueDate          *string  `json:"due_date"`
	NextFollowupDate *string  `json:"next_followup_date"`
	LastActionDate   *string  `json:"last_action_date"`
	Status           *string  `json:"status"`
}

func (req updateTaskRequest) update() (entity.TaskUpdate, error) {
	upd := entity.TaskUpdate{
		Title:            req.Title,
		Description:      req.Description,
		CustomerName:     req.CustomerName,
		PotentialRevenue: req.PotentialRevenue,
	}
	if req.CustomerTier != nil {
		tier := entity.Tier(*req.CustomerTier)
		upd.CustomerTier = &tier
	}
	if req.Status != nil {
		status := entity.TaskStatus(*req.Status)
		upd.Status = &status
	}

	var err error
	if upd.DueDate, err = optionalTime(req.DueDate, "due_date", parseDate); err != nil {
		return upd, err
	}
	if upd.NextFollowupDate, err = optionalTime(req.NextFollowupDate, "next_followup_date", parseTimestamp); err != nil {
		return upd, err
	}
	if upd.LastActionDate, err = optionalTime(req.LastActionDate, "last_action_date", parseTimestamp); err != nil {
		return upd, err
	}
	return upd, nil
}

// optionalTime maps nil to "leave alone" and "" to the zero time, which
// clears the column.
func optionalTime(raw *string, field string, parse func(string, string) (*time.Time, error)) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parse(field, *raw)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return &time.Time{}, nil
	}
	return t, nil
}

type logActionRequest struct {
	At string `json:"at"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.Tasks.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.Tasks.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// List serves GET /tasks with optional status, type, customer_tier,
// customer_name, due_before, due_after, exclude_done, order_by, asc and
// limit query parameters.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := taskFilterFromQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.Tasks.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func taskFilterFromQuery(r *http.Request) (entity.TaskFilter, error) {
	q := r.URL.Query()
	filter := entity.TaskFilter{
		CustomerName: queryString(r, "customer_name"),
		OrderBy:      entity.TaskOrder(q.Get("order_by")),
	}
	if q.Has("status") {
		status := entity.TaskStatus(q.Get("status"))
		filter.Status = &status
	}
	if q.Has("type") {
		taskType := entity.TaskType(q.Get("type"))
		filter.Type = &taskType
	}
	if q.Has("customer_tier") {
		tier := entity.Tier(q.Get("customer_tier"))
		filter.CustomerTier = &tier
	}

	var err error
	if filter.DueBefore, err = parseDate("due_before", q.Get("due_before")); err != nil {
		return filter, err
	}
	if filter.DueAfter, err = parseDate("due_after", q.Get("due_after")); err != nil {
		return filter, err
	}
	if filter.ExcludeDone, err = queryBool(r, "exclude_done"); err != nil {
		return filter, err
	}
	if filter.Ascending, err = queryBool(r, "asc"); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *TaskHandler) Open(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.Tasks.OpenTasks(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) Quick(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.Tasks.QuickTasks(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) Prioritized(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	ranked, err := h.Tasks.Prioritized(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]taskResponse, 0, len(ranked))
	for _, st := range ranked {
		resp := toTaskResponse(st.Task)
		score := st.Score
		resp.Score = &score
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	upd, err := req.update()
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.Tasks.Update(r.Context(), id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	if upd.Status != nil && *upd.Status == entity.TaskStatusDone {
		middleware.RecordTaskCompleted()
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.Tasks.MarkDone(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.RecordTaskCompleted()
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.Tasks.Reopen(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// LogAction accepts an optional {"at": RFC 3339}; an empty body means now.
func (h *TaskHandler) LogAction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req logActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, entity.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	at, err := parseTimestamp("at", req.At)
	if err != nil {
		writeError(w, err)
		return
	}

	var when time.Time
	if at != nil {
		when = *at
	}
	task, err := h.Tasks.LogAction(r.Context(), id, when)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}
