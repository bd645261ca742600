package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/aleister1102/changewatch/internal/common"
	"github.com/aleister1102/changewatch/internal/datastore"
	"github.com/aleister1102/changewatch/internal/models"

	"github.com/go-chi/chi/v5"
)

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var input models.CreateTaskInput
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := s.tasks.CreateTask(r.Context(), input)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.ListTasks(r.Context())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.GetTask(r.Context(), chi.URLParam(r, "task_id"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")
	if err := s.tasks.DeleteTask(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "status": "deleted"})
}

func (s *Server) pauseTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")
	if err := s.tasks.PauseTask(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "status": string(models.StatusPaused)})
}

func (s *Server) resumeTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")
	if err := s.tasks.ResumeTask(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_id": id, "status": string(models.StatusRunning)})
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "task_id")
	if _, err := s.tasks.GetTask(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	files, err := s.snapshots.List(id)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if files == nil {
		files = []datastore.SnapshotFile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"task_id": id, "snapshots": files})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeFailure(w, r, common.WrapError(common.ErrFeatureDisabled, "check history"))
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	id := chi.URLParam(r, "task_id")
	if _, err := s.tasks.GetTask(r.Context(), id); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	records, err := s.history.List(id, limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if records == nil {
		records = []models.CheckRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"task_id": id, "history": records})
}

func (s *Server) lastDiff(w http.ResponseWriter, r *http.Request) {
	if s.diffs == nil {
		s.writeFailure(w, r, common.WrapError(common.ErrFeatureDisabled, "last diff record"))
		return
	}

	text, err := s.diffs.LastDiff()
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	lines := []string{}
	if text != "" {
		lines = strings.Split(strings.TrimRight(text, "\n"), "\n")
	}
	writeJSON(w, http.StatusOK, map[string]any{"diff": text, "lines": lines})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, common.NewValidationError("limit", raw, "must be a non-negative integer")
	}
	return limit, nil
}
