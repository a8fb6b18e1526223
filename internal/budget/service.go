package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// Draft holds the editable fields of a budget.
type Draft struct {
	Name              string
	StartDate         time.Time
	EndDate           time.Time
	AnalyticAccountID string
	Type              model.BudgetType
	BudgetedAmount    decimal.Decimal
}

// Service is the budget reconciler and lifecycle manager.
type Service struct {
	store    store.Transactor
	log      *slog.Logger
	activity activity.Recorder
}

// NewService creates a budget Service.
func NewService(st store.Transactor, logger *slog.Logger, rec activity.Recorder) *Service {
	return &Service{store: st, log: logger, activity: rec}
}

// ComputeActuals reconciles a budget against the posted documents tagged with
// its analytic account. Nothing is cached; every call reads current facts.
func (s *Service) ComputeActuals(ctx context.Context, budgetID string) (model.BudgetActuals, error) {
	q := s.store.Queries()
	b, err := q.GetBudget(ctx, budgetID)
	if err != nil {
		return model.BudgetActuals{}, err
	}
	return computeActuals(ctx, q, b)
}

func computeActuals(ctx context.Context, q *store.Queries, b model.Budget) (model.BudgetActuals, error) {
	tuples, err := q.ActualTuples(ctx, b.AnalyticAccountID)
	if err != nil {
		return model.BudgetActuals{}, err
	}
	return Metrics(b.BudgetedAmount, Actuals(b, tuples)), nil
}

func validate(d Draft) error {
	var msgs []string
	if strings.TrimSpace(d.Name) == "" {
		msgs = append(msgs, "name is required")
	}
	if d.AnalyticAccountID == "" {
		msgs = append(msgs, "analytic account is required")
	}
	if d.Type != model.BudgetTypeIncome && d.Type != model.BudgetTypeExpense {
		msgs = append(msgs, fmt.Sprintf("unknown budget type %q", d.Type))
	}
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		msgs = append(msgs, "start and end dates are required")
	} else if model.Day(d.EndDate).Before(model.Day(d.StartDate)) {
		msgs = append(msgs, "end date is before start date")
	}
	if d.BudgetedAmount.IsNegative() {
		msgs = append(msgs, fmt.Sprintf("budgeted amount %s is negative", d.BudgetedAmount))
	}
	if len(msgs) > 0 {
		return ledgererr.Validationf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

func apply(b *model.Budget, d Draft) {
	b.Name = strings.TrimSpace(d.Name)
	b.StartDate = model.Day(d.StartDate)
	b.EndDate = model.Day(d.EndDate)
	b.AnalyticAccountID = d.AnalyticAccountID
	b.Type = d.Type
	b.BudgetedAmount = d.BudgetedAmount.Round(2)
}

// Create stores a new DRAFT budget.
func (s *Service) Create(ctx context.Context, d Draft) (model.Budget, error) {
	if err := validate(d); err != nil {
		return model.Budget{}, err
	}
	b := model.Budget{ID: id.New(), Status: model.BudgetStatusDraft}
	apply(&b, d)

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetAnalyticAccount(ctx, b.AnalyticAccountID); err != nil {
			return err
		}
		if err := q.InsertBudget(ctx, b); err != nil {
			return err
		}
		var err error
		b, err = q.GetBudget(ctx, b.ID)
		return err
	})
	if err != nil {
		return model.Budget{}, err
	}

	s.log.Info("budget created", "budget_id", b.ID, "name", b.Name, "amount", b.BudgetedAmount.StringFixed(2))
	s.record(activity.ActionBudgetCreated, b)
	return b, nil
}

// Update rewrites the fields of a DRAFT budget.
func (s *Service) Update(ctx context.Context, budgetID string, d Draft) (model.Budget, error) {
	if err := validate(d); err != nil {
		return model.Budget{}, err
	}

	var b model.Budget
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		b, err = q.GetBudget(ctx, budgetID)
		if err != nil {
			return err
		}
		if b.Status != model.BudgetStatusDraft {
			return ledgererr.InvalidStatef("budget %s is %s, only drafts can be edited", b.Name, b.Status)
		}
		if _, err := q.GetAnalyticAccount(ctx, d.AnalyticAccountID); err != nil {
			return err
		}
		apply(&b, d)
		return q.UpdateBudgetFields(ctx, b)
	})
	if err != nil {
		return model.Budget{}, err
	}

	s.log.Info("budget updated", "budget_id", b.ID, "amount", b.BudgetedAmount.StringFixed(2))
	s.record(activity.ActionBudgetUpdated, b)
	return b, nil
}

// Confirm moves a DRAFT budget to CONFIRMED.
func (s *Service) Confirm(ctx context.Context, budgetID string) (model.Budget, error) {
	b, err := s.transition(ctx, budgetID, model.BudgetStatusConfirmed, model.BudgetStatusDraft)
	if err != nil {
		return model.Budget{}, err
	}
	s.log.Info("budget confirmed", "budget_id", b.ID, "name", b.Name)
	s.record(activity.ActionBudgetConfirmed, b)
	return b, nil
}

// Archive moves a DRAFT or CONFIRMED budget to ARCHIVED. Revised versions
// stay in the history as they are.
func (s *Service) Archive(ctx context.Context, budgetID string) (model.Budget, error) {
	b, err := s.transition(ctx, budgetID, model.BudgetStatusArchived, model.BudgetStatusDraft, model.BudgetStatusConfirmed)
	if err != nil {
		return model.Budget{}, err
	}
	s.log.Info("budget archived", "budget_id", b.ID, "name", b.Name)
	s.record(activity.ActionBudgetArchived, b)
	return b, nil
}

func (s *Service) transition(ctx context.Context, budgetID string, to model.BudgetStatus, from ...model.BudgetStatus) (model.Budget, error) {
	var b model.Budget
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		b, err = q.GetBudget(ctx, budgetID)
		if err != nil {
			return err
		}
		allowed := false
		for _, f := range from {
			allowed = allowed || b.Status == f
		}
		if !allowed {
			return ledgererr.InvalidStatef("budget %s is %s, cannot move to %s", b.Name, b.Status, to)
		}
		if err := q.SetBudgetStatus(ctx, b.ID, b.Status, to); err != nil {
			return err
		}
		b.Status = to
		return nil
	})
	return b, err
}

// Revise supersedes a CONFIRMED budget: the original becomes REVISED and a
// DRAFT copy pointing back to it is returned for editing. Both changes
// commit together.
func (s *Service) Revise(ctx context.Context, budgetID string) (model.Budget, error) {
	var next model.Budget
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		orig, err := q.GetBudget(ctx, budgetID)
		if err != nil {
			return err
		}
		if orig.Status != model.BudgetStatusConfirmed {
			return ledgererr.InvalidStatef("budget %s is %s, only confirmed budgets can be revised", orig.Name, orig.Status)
		}
		if err := q.SetBudgetStatus(ctx, orig.ID, model.BudgetStatusConfirmed, model.BudgetStatusRevised); err != nil {
			return err
		}

		next = orig
		next.ID = id.New()
		next.Status = model.BudgetStatusDraft
		next.RevisionOfID = orig.ID
		if err := q.InsertBudget(ctx, next); err != nil {
			return err
		}
		next, err = q.GetBudget(ctx, next.ID)
		return err
	})
	if err != nil {
		return model.Budget{}, err
	}

	s.log.Info("budget revised", "budget_id", next.RevisionOfID, "revision_id", next.ID)
	s.record(activity.ActionBudgetRevised, next)
	return next, nil
}

// Get returns a budget, with actuals when it is confirmed.
func (s *Service) Get(ctx context.Context, budgetID string) (model.BudgetWithActuals, error) {
	q := s.store.Queries()
	b, err := q.GetBudget(ctx, budgetID)
	if err != nil {
		return model.BudgetWithActuals{}, err
	}
	return withActuals(ctx, q, b)
}

// List returns every budget version. Confirmed budgets carry freshly
// computed actuals.
func (s *Service) List(ctx context.Context) ([]model.BudgetWithActuals, error) {
	q := s.store.Queries()
	budgets, err := q.ListBudgets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.BudgetWithActuals, 0, len(budgets))
	for _, b := range budgets {
		bwa, err := withActuals(ctx, q, b)
		if err != nil {
			return nil, err
		}
		out = append(out, bwa)
	}
	return out, nil
}

func withActuals(ctx context.Context, q *store.Queries, b model.Budget) (model.BudgetWithActuals, error) {
	out := model.BudgetWithActuals{Budget: b}
	if b.Status != model.BudgetStatusConfirmed {
		return out, nil
	}
	a, err := computeActuals(ctx, q, b)
	if err != nil {
		return model.BudgetWithActuals{}, err
	}
	out.Actuals = &a
	return out, nil
}

// History returns budgetID followed by each version it revised, back to the
// original.
func (s *Service) History(ctx context.Context, budgetID string) ([]model.Budget, error) {
	q := s.store.Queries()
	var chain []model.Budget
	seen := make(map[string]bool)
	for next := budgetID; next != "" && !seen[next]; {
		b, err := q.GetBudget(ctx, next)
		if err != nil {
			return nil, err
		}
		seen[next] = true
		chain = append(chain, b)
		next = b.RevisionOfID
	}
	return chain, nil
}

func (s *Service) record(action string, b model.Budget) {
	e := activity.Entry{
		Action:  action,
		Subject: b.ID,
		Details: fmt.Sprintf("%s %s %s", b.Name, b.Status, b.BudgetedAmount.StringFixed(2)),
	}
	if err := s.activity.Record(e); err != nil {
		s.log.Warn("failed to record activity", "action", action, "error", err)
	}
}
