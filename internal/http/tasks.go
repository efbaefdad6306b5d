package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/tasks"
)

// TaskQueue is the part of the task client the API uses.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// TasksController handles task queue endpoints.
type TasksController struct {
	client TaskQueue
}

// NewTasksController creates a new TasksController.
func NewTasksController(client TaskQueue) *TasksController {
	return &TasksController{client: client}
}

// OverdueReportRequest optionally pins the report date.
type OverdueReportRequest struct {
	AsOf string `json:"as_of,omitempty"`
}

// RunOverdueReport enqueues an overdue loans report
// POST /api/tasks/overdue-report
func (tc *TasksController) RunOverdueReport(c *gin.Context) {
	var req OverdueReportRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.AsOf != "" {
		if _, err := entities.ParseDate(req.AsOf); err != nil {
			respondBadRequest(c, "as_of must be a yyyy-MM-dd date")
			return
		}
	}

	id, err := tc.client.Enqueue(c.Request.Context(), tasks.OverdueReportTask{AsOf: req.AsOf})
	if err != nil {
		respondInternalError(c, err, "enqueue overdue report")
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    tasks.OverdueReportTask{}.Config().Name,
	})
}

// GetTaskStatus returns the status of a task
// GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
