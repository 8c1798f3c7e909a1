package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/eXocriador/automaze-task/domain"
)

// taskBodyMaxSize caps create/update/reorder request bodies.
const taskBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance. Routes
// are registered both with and without the trailing slash so clients never
// hit a redirect.
func Register(e *echo.Echo, store Storage, logger *log.Logger) {
	list := listTasks(store, logger)
	create := createTask(store)

	e.GET("/tasks", list)
	e.GET("/tasks/", list)
	e.POST("/tasks", create)
	e.POST("/tasks/", create)
	e.POST("/tasks/reorder", reorderTasks(store))
	e.PATCH("/tasks/:id", updateTask(store))
	e.DELETE("/tasks/:id", deleteTask(store))
	e.GET("/", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func listTasks(store Storage, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newListRequestMetrics(ctx, logger)
		if spanCtx != nil {
			c.SetRequest(c.Request().WithContext(spanCtx))
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		params := domain.ListParams{
			Search:   strings.TrimSpace(c.QueryParam("search")),
			Status:   c.QueryParam("status"),
			Category: c.QueryParam("category"),
			Sort:     c.QueryParam("sort"),
		}
		metrics.SetSearchProvided(params.Search != "")

		if verr := validateListParams(&params); verr != nil {
			metrics.SetErrorStage("validate")
			err = writeValidationError(c, verr)
			return err
		}

		fetchStart := time.Now()
		tasks, fetchErr := store.ListTasks(ctx, params)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		metrics.SetTasksReturned(len(tasks))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasks)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var n domain.NewTask
		if err := decodeBody(c, &n); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := validateNewTask(&n); err != nil {
			return writeValidationError(c, err)
		}

		t, err := store.CreateTask(c.Request().Context(), n)
		if err != nil {
			return writeStoreError(c, err)
		}
		return c.JSON(http.StatusCreated, t)
	}
}

func updateTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := taskID(c)
		if err != nil {
			return writeValidationError(c, err)
		}

		var p domain.TaskPatch
		if err := decodeBody(c, &p); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := validateTaskPatch(&p); err != nil {
			return writeValidationError(c, err)
		}

		t, err := store.UpdateTask(c.Request().Context(), id, p)
		if err != nil {
			return writeStoreError(c, err)
		}
		return c.JSON(http.StatusOK, t)
	}
}

func deleteTask(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := taskID(c)
		if err != nil {
			return writeValidationError(c, err)
		}

		if err := store.DeleteTask(c.Request().Context(), id); err != nil {
			return writeStoreError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func reorderTasks(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		var ids []int64
		if err := decodeBody(c, &ids); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}

		tasks, err := store.ReorderTasks(c.Request().Context(), ids)
		if err != nil {
			return writeStoreError(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

// decodeBody reads a JSON request body with a size cap and strict field
// checking.
func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, taskBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// taskID parses the :id path parameter.
func taskID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ve := &validationError{}
		ve.add("id", "must be an integer")
		return 0, ve
	}
	return id, nil
}

type validationResponse struct {
	Detail []fieldError `json:"detail"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeValidationError(c echo.Context, err error) error {
	var ve *validationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusUnprocessableEntity, validationResponse{Detail: ve.fields})
	}
	return c.String(http.StatusUnprocessableEntity, err.Error())
}

// writeStoreError maps store errors onto the HTTP error taxonomy: absent
// ids are 404, constraint rejections are a generic 500, anything else is a
// plain 500.
func writeStoreError(c echo.Context, err error) error {
	var nf NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, errorResponse{Detail: "Task not found"})
	}
	var cv ConstraintViolationError
	if errors.As(err, &cv) {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: "storage rejected write"})
	}
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}
