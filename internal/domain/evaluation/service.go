package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const fetchConcurrency = 8

type Service struct {
	rubric    Rubric
	scorer    Scorer
	builder   Builder
	structure RubricSource
	directory EmployeeDirectory
	repo      Repository

	mu       sync.RWMutex
	tree     *Tree
	loadedAt time.Time
}

func NewService(structure RubricSource, directory EmployeeDirectory, repo Repository, strategy Strategy) *Service {
	rubric := FixedRubric()
	return &Service{
		rubric:    rubric,
		scorer:    NewScorer(rubric, strategy),
		builder:   NewBuilder(),
		structure: structure,
		directory: directory,
		repo:      repo,
	}
}

func (s *Service) Rubric() Rubric {
	return s.rubric
}

func (s *Service) Strategy() Strategy {
	return s.scorer.Strategy
}

func (s *Service) NewFixedForm(evaluatorID int) *FixedForm {
	return NewFixedForm(s.rubric, evaluatorID, s.builder.now())
}

// Score recomputes the composite for one ratings-changed event.
func (s *Service) Score(f *FixedForm) Breakdown {
	return s.scorer.Score(f)
}

// ScoreWith scores using an explicitly named strategy instead of the configured default.
func (s *Service) ScoreWith(f *FixedForm, strategy Strategy) Breakdown {
	return NewScorer(s.rubric, strategy).Score(f)
}

type FormContext struct {
	Variant    Variant          `json:"variant"`
	Employees  []Employee       `json:"employees"`
	Rubric     *Rubric          `json:"rubric,omitempty"`
	Tree       *Tree            `json:"tree,omitempty"`
	Scale      []ScaleChoice    `json:"scale"`
	Attendance []AttendanceStep `json:"attendance,omitempty"`
	Strategy   Strategy         `json:"strategy,omitempty"`
}

// FormContext loads everything an evaluation form needs before it can be filled in.
// The employee list and the rubric tree load concurrently; cancelling ctx abandons both.
func (s *Service) FormContext(ctx context.Context, variant Variant) (FormContext, error) {
	out := FormContext{Variant: variant, Scale: Scale()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		employees, err := s.directory.Employees(gctx)
		if err != nil {
			return fmt.Errorf("load employees: %w", err)
		}
		out.Employees = employees
		return nil
	})
	if variant == VariantTree {
		g.Go(func() error {
			tree, err := s.Structure(gctx)
			if err != nil {
				return err
			}
			out.Tree = &tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("evaluation form context load failed", "variant", variant, "err", err)
		return FormContext{}, fmt.Errorf("%w: %w", ErrBackendFailure, err)
	}

	if variant == VariantFixed {
		rubric := s.rubric
		out.Rubric = &rubric
		out.Attendance = AttendanceTable()
		out.Strategy = s.scorer.Strategy
	}
	if out.Employees == nil {
		out.Employees = []Employee{}
	}
	return out, nil
}

// Structure returns the cached rubric tree, loading it on first use.
func (s *Service) Structure(ctx context.Context) (Tree, error) {
	s.mu.RLock()
	cached := s.tree
	s.mu.RUnlock()
	if cached != nil {
		return *cached, nil
	}
	return s.RefreshStructure(ctx)
}

func (s *Service) StructureLoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// RefreshStructure reloads the rubric tree from the structure service and replaces the cache.
func (s *Service) RefreshStructure(ctx context.Context) (Tree, error) {
	tree, err := s.loadTree(ctx)
	if err != nil {
		return Tree{}, err
	}
	if err := tree.Validate(); err != nil {
		return Tree{}, err
	}
	s.mu.Lock()
	s.tree = &tree
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return tree, nil
}

func (s *Service) loadTree(ctx context.Context) (Tree, error) {
	groups, err := s.structure.Groups(ctx)
	if err != nil {
		return Tree{}, fmt.Errorf("load rubric groups: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i := range groups {
		i := i
		g.Go(func() error {
			subs, err := s.structure.SubGroups(gctx, groups[i].GroupID)
			if err != nil {
				return fmt.Errorf("load subgroups of group %d: %w", groups[i].GroupID, err)
			}
			groups[i].SubGroups = subs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Tree{}, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i := range groups {
		for j := range groups[i].SubGroups {
			sub := &groups[i].SubGroups[j]
			g.Go(func() error {
				items, err := s.structure.ItemsBySubGroup(gctx, sub.SubGroupID)
				if err != nil {
					return fmt.Errorf("load items of subgroup %d: %w", sub.SubGroupID, err)
				}
				sub.Items = items
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return Tree{}, err
	}
	return Tree{Groups: groups}, nil
}

type FixedSubmission struct {
	Record    Record      `json:"record"`
	Payload   FixedRecord `json:"payload"`
	Breakdown Breakdown   `json:"breakdown"`
}

// SubmitFixed validates, scores, builds and persists a fixed-form evaluation.
// On success the form is reset for the next session; on any failure it is left untouched.
func (s *Service) SubmitFixed(ctx context.Context, f *FixedForm, evaluatorName string) (FixedSubmission, error) {
	if err := ValidateSubmission(f); err != nil {
		return FixedSubmission{}, err
	}
	breakdown, err := s.scorer.ScoreStrict(f)
	if err != nil {
		return FixedSubmission{}, err
	}
	payload := s.builder.Fixed(f, breakdown, evaluatorName)
	rec, err := s.repo.CreateFixed(ctx, payload)
	if err != nil {
		slog.Warn("evaluation submit failed", "variant", VariantFixed, "employeeId", f.EmployeeID, "err", err)
		return FixedSubmission{}, wrapBackend(err)
	}
	f.Reset(f.EvaluatorID, s.builder.now())
	return FixedSubmission{Record: rec, Payload: payload, Breakdown: breakdown}, nil
}

type TreeSubmission struct {
	Record  Record     `json:"record"`
	Payload TreeRecord `json:"payload"`
	Result  TreeResult `json:"result"`
}

func (s *Service) SubmitTree(ctx context.Context, f *TreeForm, evaluator Evaluator) (TreeSubmission, error) {
	if err := ValidateSubmission(f); err != nil {
		return TreeSubmission{}, err
	}
	result := ScoreTree(f)
	payload := s.builder.Tree(f, evaluator)
	rec, err := s.repo.CreateTree(ctx, payload)
	if err != nil {
		slog.Warn("evaluation submit failed", "variant", VariantTree, "employeeId", f.EmployeeID, "err", err)
		return TreeSubmission{}, wrapBackend(err)
	}
	f.Reset()
	return TreeSubmission{Record: rec, Payload: payload, Result: result}, nil
}

func (s *Service) Report(ctx context.Context, page Page) (Report, error) {
	records, err := s.records(ctx)
	if err != nil {
		slog.Warn("evaluation report load failed", "err", err)
		return Report{}, wrapBackend(err)
	}
	return Project(records, page), nil
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	records, err := s.records(ctx)
	if err != nil {
		slog.Warn("evaluation summary load failed", "err", err)
		return Summary{}, wrapBackend(err)
	}
	return Summarize(records), nil
}

// records lists stored evaluations and fills in employee names the store
// did not carry. A directory failure leaves the names blank.
func (s *Service) records(ctx context.Context) ([]Record, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	missing := false
	for _, rec := range records {
		if rec.EmployeeName == "" {
			missing = true
			break
		}
	}
	if !missing || s.directory == nil {
		return records, nil
	}
	employees, err := s.directory.Employees(ctx)
	if err != nil {
		slog.Warn("employee names unavailable for report", "err", err)
		return records, nil
	}
	names := make(map[int]string, len(employees))
	for _, emp := range employees {
		names[emp.EmployeeID] = emp.FullName()
	}
	for i := range records {
		if records[i].EmployeeName == "" {
			records[i].EmployeeName = names[records[i].EmployeeID]
		}
	}
	return records, nil
}

func wrapBackend(err error) error {
	if errors.Is(err, ErrBackendFailure) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBackendFailure, err)
}
