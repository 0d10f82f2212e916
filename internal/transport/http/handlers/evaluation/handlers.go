package evaluationhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/grunt24/bcas-hrms/internal/domain/audit"
	"github.com/grunt24/bcas-hrms/internal/domain/evaluation"
	"github.com/grunt24/bcas-hrms/internal/domain/session"
	"github.com/grunt24/bcas-hrms/internal/platform/metrics"
	"github.com/grunt24/bcas-hrms/internal/transport/http/api"
	"github.com/grunt24/bcas-hrms/internal/transport/http/middleware"
	"github.com/grunt24/bcas-hrms/internal/transport/http/shared"
)

const maxPageSize = 200

type Handler struct {
	Service     *evaluation.Service
	Metrics     *metrics.Collector
	Idempotency middleware.IdempotencyStore
	Audit       *audit.Service
	PageSize    int
}

func NewHandler(service *evaluation.Service, collector *metrics.Collector, idempotency middleware.IdempotencyStore, auditSvc *audit.Service, pageSize int) *Handler {
	if collector == nil {
		collector = metrics.New()
	}
	if pageSize <= 0 {
		pageSize = evaluation.DefaultPageSize
	}
	return &Handler{Service: service, Metrics: collector, Idempotency: idempotency, Audit: auditSvc, PageSize: pageSize}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/evaluations", func(r chi.Router) {
		read := middleware.RequirePermission(session.PermEvaluationRead)
		submit := middleware.RequirePermission(session.PermEvaluationSubmit)
		report := middleware.RequirePermission(session.PermEvaluationReport)

		r.With(read).Get("/rubric", h.handleRubric)
		r.With(read).Get("/form-context", h.handleFormContext)
		r.With(read).Post("/score", h.handleScore)
		r.With(submit, middleware.Idempotent("evaluation.fixed", h.Idempotency)).Post("/fixed", h.handleSubmitFixed)
		r.With(submit, middleware.Idempotent("evaluation.tree", h.Idempotency)).Post("/tree", h.handleSubmitTree)
		r.With(report).Get("/", h.handleReport)
		r.With(report).Get("/summary", h.handleSummary)
	})
}

type rubricResponse struct {
	Rubric     evaluation.Rubric           `json:"rubric"`
	Scale      []evaluation.ScaleChoice    `json:"scale"`
	Attendance []evaluation.AttendanceStep `json:"attendance"`
	Strategy   evaluation.Strategy         `json:"strategy"`
}

// fixedRequest mirrors the stored fixed-form payload. A zero rating means the
// item was left unrated; punctuality.daysAbsent carries the raw day count.
// Strategy is honoured by the score preview only.
type fixedRequest struct {
	EmployeeID             int            `json:"employeeId" validate:"gte=0"`
	EvaluationDate         string         `json:"evaluationDate"`
	TeachingQualifications map[string]int `json:"teachingQualifications"`
	ClassAuthority         map[string]int `json:"classAuthority"`
	Punctuality            map[string]int `json:"punctuality"`
	OtherQualifications    map[string]int `json:"otherQualifications"`
	SEP                    int            `json:"sep"`
	Comments               string         `json:"comments" validate:"max=4000"`
	Strategy               string         `json:"strategy"`
}

type treeScore struct {
	SubGroupID int `json:"subGroupID" validate:"gt=0"`
	ScoreValue int `json:"scoreValue" validate:"gte=1,lte=5"`
}

type treeRequest struct {
	EmployeeID int         `json:"employeeId" validate:"gte=0"`
	Comments   string      `json:"comments" validate:"max=4000"`
	Scores     []treeScore `json:"scores" validate:"dive"`
}

func (h *Handler) handleRubric(w http.ResponseWriter, r *http.Request) {
	api.Success(w, rubricResponse{
		Rubric:     h.Service.Rubric(),
		Scale:      evaluation.Scale(),
		Attendance: evaluation.AttendanceTable(),
		Strategy:   h.Service.Strategy(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleFormContext(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	variant, ok := evaluation.ParseVariant(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("variant"))))
	if !ok {
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "variant", Reason: "must be one of fixed tree"}})
		return
	}
	out, err := h.Service.FormContext(r.Context(), variant)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess, _ := middleware.GetSession(r.Context())

	var payload fixedRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	strategy, ok := evaluation.ParseStrategy(strings.TrimSpace(payload.Strategy))
	if !ok {
		validator.Add("strategy", fmt.Sprintf("must be one of %s %s", evaluation.StrategyAttendanceFolded, evaluation.StrategyAttendanceDisplayOnly))
	}
	form := h.buildFixedForm(payload, sess.User.UserID, validator)
	if validator.Reject(w, requestID) {
		return
	}

	breakdown := h.Service.Score(form)
	if payload.Strategy != "" {
		breakdown = h.Service.ScoreWith(form, strategy)
	}
	h.Metrics.ScoreComputed()
	api.Success(w, breakdown, requestID)
}

func (h *Handler) handleSubmitFixed(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess, _ := middleware.GetSession(r.Context())

	var payload fixedRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	form := h.buildFixedForm(payload, sess.User.UserID, validator)
	if validator.Reject(w, requestID) {
		return
	}

	out, err := h.Service.SubmitFixed(r.Context(), form, sess.User.DisplayName())
	if err != nil {
		h.recordSubmission(evaluation.VariantFixed, err)
		h.writeError(w, r, err)
		return
	}
	h.recordSubmission(evaluation.VariantFixed, nil)
	slog.Info("evaluation submitted",
		"variant", evaluation.VariantFixed,
		"employeeId", out.Payload.EmployeeID,
		"evaluatorId", out.Payload.EvaluatorID,
		"finalScore", out.Payload.FinalScore,
	)
	h.audit(r, sess, audit.ActionEvaluationFixed, out.Record.EvaluationID, map[string]any{
		"employeeId": out.Payload.EmployeeID,
		"finalScore": out.Payload.FinalScore,
	})
	api.Created(w, out, requestID)
}

func (h *Handler) handleSubmitTree(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sess, _ := middleware.GetSession(r.Context())

	var payload treeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, requestID) {
		return
	}

	evaluatorID := sess.User.EmployeeID
	form := evaluation.NewTreeForm(nil, evaluatorID, time.Time{})
	form.EmployeeID = payload.EmployeeID
	if err := evaluation.ValidateSubmission(form); err != nil {
		h.writeError(w, r, err)
		return
	}

	tree, err := h.Service.Structure(r.Context())
	if err != nil {
		h.writeError(w, r, wrapStructure(err))
		return
	}
	form = evaluation.NewTreeForm(&tree, evaluatorID, time.Time{})
	form.EmployeeID = payload.EmployeeID
	form.Comments = strings.TrimSpace(payload.Comments)
	for i, score := range payload.Scores {
		if err := form.SetScore(score.SubGroupID, evaluation.Rating(score.ScoreValue)); err != nil {
			validator.Add(fmt.Sprintf("scores[%d].subGroupID", i), ratingReason(err))
		}
	}
	if validator.Reject(w, requestID) {
		return
	}

	out, err := h.Service.SubmitTree(r.Context(), form, evaluation.Evaluator{
		ID:   evaluatorID,
		Name: sess.User.DisplayName(),
	})
	if err != nil {
		h.recordSubmission(evaluation.VariantTree, err)
		h.writeError(w, r, err)
		return
	}
	h.recordSubmission(evaluation.VariantTree, nil)
	slog.Info("evaluation submitted",
		"variant", evaluation.VariantTree,
		"employeeId", out.Payload.EmployeeID,
		"evaluatorId", out.Payload.EvaluatorID,
		"scores", len(out.Payload.Scores),
	)
	h.audit(r, sess, audit.ActionEvaluationTree, out.Record.EvaluationID, map[string]any{
		"employeeId": out.Payload.EmployeeID,
		"scores":     len(out.Payload.Scores),
	})
	api.Created(w, out, requestID)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, h.PageSize, maxPageSize)
	report, err := h.Service.Report(r.Context(), evaluation.Page{Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

// buildFixedForm applies the request onto a fresh form and records every
// rejected rating as a validation issue.
func (h *Handler) buildFixedForm(payload fixedRequest, evaluatorID int, validator *shared.Validator) *evaluation.FixedForm {
	form := h.Service.NewFixedForm(evaluatorID)
	form.EmployeeID = payload.EmployeeID
	form.Comments = strings.TrimSpace(payload.Comments)
	if date := validator.Date("evaluationDate", payload.EvaluationDate); !date.IsZero() {
		form.EvaluationDate = date
	}

	sections := []struct {
		key     string
		ratings map[string]int
	}{
		{evaluation.SectionTeaching, payload.TeachingQualifications},
		{evaluation.SectionAuthority, payload.ClassAuthority},
		{evaluation.SectionPunctual, payload.Punctuality},
		{evaluation.SectionOther, payload.OtherQualifications},
	}
	for _, section := range sections {
		items := make([]string, 0, len(section.ratings))
		for item := range section.ratings {
			items = append(items, item)
		}
		sort.Strings(items)
		for _, item := range items {
			value := section.ratings[item]
			field := section.key + "." + item
			if section.key == evaluation.SectionPunctual && item == evaluation.ItemDaysAbsent {
				if err := form.SetDaysAbsent(value); err != nil {
					validator.Add(field, "must not be negative")
				}
				continue
			}
			if value == 0 {
				continue
			}
			if err := form.SetRating(section.key, item, evaluation.Rating(value)); err != nil {
				validator.Add(field, ratingReason(err))
			}
		}
	}
	if payload.SEP != 0 {
		if err := form.SetSEP(evaluation.Rating(payload.SEP)); err != nil {
			validator.Add("sep", ratingReason(err))
		}
	}
	return form
}

func (h *Handler) audit(r *http.Request, sess session.Session, action string, evaluationID int, after map[string]any) {
	err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    strconv.Itoa(sess.User.UserID),
		Action:     action,
		EntityType: "evaluation",
		EntityID:   strconv.Itoa(evaluationID),
		RequestID:  middleware.GetRequestID(r.Context()),
		IP:         shared.ClientIP(r),
		After:      after,
	})
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) recordSubmission(variant evaluation.Variant, err error) {
	if errors.Is(err, evaluation.ErrEmployeeRequired) || errors.Is(err, evaluation.ErrEvaluatorRequired) {
		return
	}
	h.Metrics.Submission(string(variant), err == nil)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, evaluation.ErrEmployeeRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "employeeId", Reason: "is required"}})
	case errors.Is(err, evaluation.ErrEvaluatorRequired):
		shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "evaluatorId", Reason: "is required"}})
	case errors.Is(err, context.Canceled):
		api.Fail(w, http.StatusServiceUnavailable, "request_cancelled", "request was cancelled", requestID)
	case errors.Is(err, evaluation.ErrScoreOutOfRange):
		slog.Error("composite outside rating scale", "err", err)
		api.Fail(w, http.StatusInternalServerError, "score_out_of_range", "composite score outside the rating scale", requestID)
	case errors.Is(err, evaluation.ErrBackendFailure):
		h.Metrics.BackendFailure()
		api.Fail(w, http.StatusBadGateway, "backend_unavailable", "evaluation backend unavailable", requestID)
	default:
		slog.Error("evaluation request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "unexpected error", requestID)
	}
}

func wrapStructure(err error) error {
	if errors.Is(err, evaluation.ErrBackendFailure) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", evaluation.ErrBackendFailure, err)
}

func ratingReason(err error) string {
	switch {
	case errors.Is(err, evaluation.ErrRatingOutOfRange):
		return "must be between 1 and 5"
	case errors.Is(err, evaluation.ErrUnknownSection), errors.Is(err, evaluation.ErrUnknownItem):
		return "is not part of the rubric"
	case errors.Is(err, evaluation.ErrUnknownSubGroup):
		return "is not part of the rubric structure"
	default:
		return err.Error()
	}
}
