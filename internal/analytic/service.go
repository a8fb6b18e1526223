package analytic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// AccountDraft holds the parameters for a new analytic account.
type AccountDraft struct {
	Code       string
	Name       string
	ParentCode string
}

// RuleDraft holds the parameters for a new auto-analytical rule.
type RuleDraft struct {
	Name            string
	Priority        int
	TargetAccountID string
	Conditions      []model.Condition
}

// Service manages analytic accounts and rules and answers match queries.
type Service struct {
	store    store.Transactor
	log      *slog.Logger
	activity activity.Recorder
}

// NewService creates an analytic Service.
func NewService(st store.Transactor, logger *slog.Logger, rec activity.Recorder) *Service {
	return &Service{store: st, log: logger, activity: rec}
}

// FindAnalyticAccount returns the analytic account id the active rules assign
// to mc. ok is false when no rule matches and the line needs manual tagging.
func (s *Service) FindAnalyticAccount(ctx context.Context, mc model.MatchContext) (accountID string, ok bool, err error) {
	return Find(ctx, s.store.Queries(), mc)
}

// Find evaluates the active rules stored behind q against mc.
func Find(ctx context.Context, q *store.Queries, mc model.MatchContext) (string, bool, error) {
	rules, err := q.ListRules(ctx, true)
	if err != nil {
		return "", false, err
	}
	target, ok := Match(rules, mc)
	return target, ok, nil
}

// CreateAccount adds an analytic account, optionally under a parent.
func (s *Service) CreateAccount(ctx context.Context, d AccountDraft) (model.AnalyticAccount, error) {
	code := strings.TrimSpace(d.Code)
	name := strings.TrimSpace(d.Name)
	if code == "" || name == "" {
		return model.AnalyticAccount{}, ledgererr.Validationf("analytic account code and name are required")
	}

	a := model.AnalyticAccount{ID: id.New(), Code: code, Name: name}
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetAnalyticAccountByCode(ctx, code); err == nil {
			return ledgererr.Validationf("analytic account code %s already exists", code)
		}
		if d.ParentCode != "" {
			parent, err := q.GetAnalyticAccountByCode(ctx, d.ParentCode)
			if err != nil {
				return err
			}
			a.ParentID = parent.ID
		}
		return q.InsertAnalyticAccount(ctx, a)
	})
	if err != nil {
		return model.AnalyticAccount{}, err
	}

	s.log.Info("analytic account created", "code", a.Code, "parent_id", a.ParentID)
	return a, nil
}

// Accounts returns every analytic account ordered by code.
func (s *Service) Accounts(ctx context.Context) ([]model.AnalyticAccount, error) {
	return s.store.Queries().ListAnalyticAccounts(ctx)
}

// AccountByCode looks up an analytic account by its code.
func (s *Service) AccountByCode(ctx context.Context, code string) (model.AnalyticAccount, error) {
	return s.store.Queries().GetAnalyticAccountByCode(ctx, code)
}

// Tree returns the top-level analytic accounts with their descendants
// attached as Children.
func (s *Service) Tree(ctx context.Context) ([]model.AnalyticAccount, error) {
	all, err := s.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	return BuildTree(all), nil
}

// BuildTree nests accounts under their parents. Accounts whose parent is
// missing from the input are treated as roots.
func BuildTree(accounts []model.AnalyticAccount) []model.AnalyticAccount {
	known := make(map[string]bool, len(accounts))
	children := make(map[string][]model.AnalyticAccount)
	for _, a := range accounts {
		known[a.ID] = true
	}
	var roots []model.AnalyticAccount
	for _, a := range accounts {
		if a.ParentID == "" || !known[a.ParentID] {
			roots = append(roots, a)
			continue
		}
		children[a.ParentID] = append(children[a.ParentID], a)
	}

	var attach func(a model.AnalyticAccount) model.AnalyticAccount
	attach = func(a model.AnalyticAccount) model.AnalyticAccount {
		for _, c := range children[a.ID] {
			a.Children = append(a.Children, attach(c))
		}
		return a
	}
	for i := range roots {
		roots[i] = attach(roots[i])
	}
	return roots
}

// CreateRule validates and stores an active rule.
func (s *Service) CreateRule(ctx context.Context, d RuleDraft) (model.AutoAnalyticalRule, error) {
	if err := validateRule(d); err != nil {
		return model.AutoAnalyticalRule{}, err
	}

	r := model.AutoAnalyticalRule{
		ID:              id.New(),
		Name:            strings.TrimSpace(d.Name),
		Priority:        d.Priority,
		Active:          true,
		TargetAccountID: d.TargetAccountID,
	}
	for _, c := range d.Conditions {
		c.ID = id.New()
		r.Conditions = append(r.Conditions, c)
	}

	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetAnalyticAccount(ctx, r.TargetAccountID); err != nil {
			return err
		}
		return q.InsertRule(ctx, r)
	})
	if err != nil {
		return model.AutoAnalyticalRule{}, err
	}

	if len(r.Conditions) == 0 {
		s.log.Warn("rule has no conditions and will never match", "rule", r.Name)
	}
	s.log.Info("rule created", "rule_id", r.ID, "rule", r.Name, "priority", r.Priority)
	if err := s.activity.Record(activity.Entry{
		Action:  activity.ActionRuleCreated,
		Subject: r.ID,
		Details: fmt.Sprintf("%s priority %d", r.Name, r.Priority),
	}); err != nil {
		s.log.Warn("failed to record activity", "action", activity.ActionRuleCreated, "error", err)
	}
	return r, nil
}

func validateRule(d RuleDraft) error {
	var msgs []string
	if strings.TrimSpace(d.Name) == "" {
		msgs = append(msgs, "rule name is required")
	}
	if d.TargetAccountID == "" {
		msgs = append(msgs, "target analytic account is required")
	}
	for i, c := range d.Conditions {
		if !ValidField(c.Field) {
			msgs = append(msgs, fmt.Sprintf("condition %d: unknown field %q", i+1, c.Field))
		}
		if !ValidOperator(c.Operator) {
			msgs = append(msgs, fmt.Sprintf("condition %d: unknown operator %q", i+1, c.Operator))
		}
		if c.Value == "" {
			msgs = append(msgs, fmt.Sprintf("condition %d: value is required", i+1))
		}
	}
	if len(msgs) > 0 {
		return ledgererr.Validationf("%s", strings.Join(msgs, "; "))
	}
	return nil
}

// Rules returns every rule in evaluation order, inactive ones included.
func (s *Service) Rules(ctx context.Context) ([]model.AutoAnalyticalRule, error) {
	return s.store.Queries().ListRules(ctx, false)
}

// Rule returns a single rule with its conditions.
func (s *Service) Rule(ctx context.Context, ruleID string) (model.AutoAnalyticalRule, error) {
	return s.store.Queries().GetRule(ctx, ruleID)
}

// SetRuleActive enables or disables a rule.
func (s *Service) SetRuleActive(ctx context.Context, ruleID string, active bool) error {
	if err := s.store.Queries().SetRuleActive(ctx, ruleID, active); err != nil {
		return err
	}
	s.log.Info("rule toggled", "rule_id", ruleID, "active", active)
	return nil
}
