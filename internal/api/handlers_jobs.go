package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/text/language"

	"newsforge/internal/jobs"
	"newsforge/internal/logging"
	"newsforge/internal/pipeline"
	"newsforge/internal/services"
)

const (
	maxTopicLength   = 100
	minVideoLength   = 30
	maxVideoLength   = 300
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" || len(req.Topic) > maxTopicLength {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("topic must be 1-%d characters", maxTopicLength))
		return
	}

	if req.RequestedLength == 0 {
		fallback := s.cfg.Workflow.DefaultVideoLength
		length, err := s.store.GetSettingInt(r.Context(), jobs.SettingDefaultVideoLength, fallback)
		if err != nil {
			s.writeError(w, r, http.StatusInternalServerError, "failed to resolve default video length")
			return
		}
		req.RequestedLength = length
	}
	if req.RequestedLength < minVideoLength || req.RequestedLength > maxVideoLength {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("requestedLength must be %d-%d seconds", minVideoLength, maxVideoLength))
		return
	}

	if req.Language == "" {
		req.Language = s.cfg.Workflow.DefaultLanguage
	}
	tag, err := language.Parse(req.Language)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid language tag %q", req.Language))
		return
	}
	req.Language = tag.String()

	job, err := s.store.CreateJob(r.Context(), jobs.CreateParams{
		Topic:            req.Topic,
		Language:         req.Language,
		RequestedLength:  req.RequestedLength,
		Category:         strings.TrimSpace(req.Category),
		Country:          strings.TrimSpace(req.Country),
		VoiceID:          strings.TrimSpace(req.VoiceID),
		VideoTheme:       strings.TrimSpace(req.VideoTheme),
		PublishRequested: req.PublishRequested,
		CreatedBy:        subjectFromContext(r.Context()),
	})
	if err != nil {
		s.logger.Error("create job", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "failed to create job")
		return
	}
	s.writeJSON(w, http.StatusCreated, FromJob(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := jobs.Filter{}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, ok := jobs.ParseStatus(raw)
		if !ok {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown status %q", raw))
			return
		}
		filter.Status = status
	}
	filter.Topic = strings.TrimSpace(query.Get("topic"))

	var err error
	if filter.From, err = parseDateParam(query.Get("date_from")); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid date_from")
		return
	}
	if filter.To, err = parseDateParam(query.Get("date_to")); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid date_to")
		return
	}

	page := 1
	if raw := query.Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil || page < 1 {
			s.writeError(w, r, http.StatusBadRequest, "page must be a positive integer")
			return
		}
	}
	limit := defaultPageLimit
	if raw := query.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 1 || limit > maxPageLimit {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("limit must be 1-%d", maxPageLimit))
			return
		}
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	list, total, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		s.logger.Error("list jobs", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	views := make([]JobView, 0, len(list))
	for _, job := range list {
		views = append(views, FromJob(job))
	}
	s.writeJSON(w, http.StatusOK, ListJobsResponse{
		Jobs: views,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	})
}

func parseDateParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.logger.Error("get job", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "failed to load job")
		return
	}
	if job == nil {
		s.writeError(w, r, http.StatusNotFound, "job not found")
		return
	}

	view := FromJob(job)
	articles, err := s.store.ListArticlesByJob(r.Context(), id)
	if err != nil {
		s.logger.Error("list articles", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "failed to load articles")
		return
	}
	view.Articles = FromArticles(articles)
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := s.store.DeleteJob(r.Context(), id)
	if err != nil {
		s.logger.Error("delete job", logging.Error(err))
		s.writeError(w, r, http.StatusInternalServerError, "failed to delete job")
		return
	}
	if !removed {
		s.writeError(w, r, http.StatusNotFound, "job not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.executor.RunPublish(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, jobs.ErrNotFound):
			s.writeError(w, r, http.StatusNotFound, "job not found")
		case errors.Is(err, pipeline.ErrNotPublishable):
			s.writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, pipeline.ErrAlreadyProcessing):
			s.writeError(w, r, http.StatusConflict, "job is already being processed")
		case services.Retryable(err) || errors.Is(err, services.ErrRemoteRejected) || errors.Is(err, services.ErrBadResponse):
			s.writeError(w, r, http.StatusBadGateway, "publish failed upstream")
		default:
			s.logger.Error("manual publish", logging.Error(err))
			s.writeError(w, r, http.StatusInternalServerError, "publish failed")
		}
		return
	}

	job, err := s.store.GetJob(r.Context(), id)
	if err != nil || job == nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to load publish result")
		return
	}
	s.writeJSON(w, http.StatusOK, PublishResponse{
		VideoURL: job.ExternalURL,
		VideoID:  job.ExternalID,
	})
}
