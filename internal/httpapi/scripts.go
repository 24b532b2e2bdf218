package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arc-self/apps/trace-insights/internal/apierr"
	"github.com/arc-self/apps/trace-insights/internal/domain"
	"github.com/arc-self/apps/trace-insights/internal/store"
)

// ScriptRegistry is the Streamer's in-memory cache, kept in sync with
// every CRUD operation below so a script takes effect on the next derived
// test result without a process restart.
type ScriptRegistry interface {
	LoadScripts(scripts []domain.Script)
	AddScript(s domain.Script)
	UpdateScript(s domain.Script)
	RemoveScript(id string)
}

type createScriptRequest struct {
	Name   string            `json:"name"`
	Source string            `json:"source"`
	Type   domain.ScriptType `json:"scriptType"`
}

func (h *handlers) listScripts(c echo.Context) error {
	scripts, err := h.querier.ListScripts(c.Request().Context(), nil)
	if err != nil {
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, scripts)
}

func (h *handlers) createScript(c echo.Context) error {
	var req createScriptRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid script body: " + err.Error())
	}
	if req.Name == "" || req.Type == "" {
		return apierr.BadRequest("name and scriptType are required")
	}

	script, err := h.querier.CreateScript(c.Request().Context(), domain.Script{
		Name:   req.Name,
		Source: req.Source,
		Type:   req.Type,
		Status: domain.ScriptEnabled,
	})
	if err != nil {
		return apierr.Internal(err)
	}
	if h.scripts != nil && script.Enabled() {
		h.scripts.AddScript(script)
	}
	return c.JSON(http.StatusCreated, script)
}

// reloadScripts re-seeds the Streamer's in-memory cache from the store,
// picking up any status flip an operator made directly against the table.
func (h *handlers) reloadScripts(c echo.Context) error {
	scripts, err := h.querier.ListScripts(c.Request().Context(), domain.ExecutableTypes)
	if err != nil {
		return apierr.Internal(err)
	}
	if h.scripts != nil {
		h.scripts.LoadScripts(scripts)
	}
	return c.JSON(http.StatusOK, scripts)
}

func (h *handlers) getScript(c echo.Context) error {
	id := c.Param("scriptId")
	script, err := h.querier.GetScript(c.Request().Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			return apierr.NotFound("script not found")
		}
		return apierr.Internal(err)
	}
	return c.JSON(http.StatusOK, script)
}

func (h *handlers) updateScript(c echo.Context) error {
	id := c.Param("scriptId")
	var req createScriptRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid script body: " + err.Error())
	}

	script, err := h.querier.UpdateScript(c.Request().Context(), domain.Script{
		ID:     id,
		Name:   req.Name,
		Source: req.Source,
		Type:   req.Type,
	})
	if err != nil {
		return apierr.Internal(err)
	}
	if h.scripts != nil {
		if script.Enabled() {
			h.scripts.UpdateScript(script)
		} else {
			h.scripts.RemoveScript(script.ID)
		}
	}
	return c.JSON(http.StatusOK, script)
}

func (h *handlers) deleteScript(c echo.Context) error {
	id := c.Param("scriptId")
	script, err := h.querier.DeleteScript(c.Request().Context(), id)
	if err != nil {
		return apierr.Internal(err)
	}
	if h.scripts != nil {
		h.scripts.RemoveScript(id)
	}
	return c.JSON(http.StatusOK, script)
}
