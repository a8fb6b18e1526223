package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

// InsertRule writes a rule and its ordered conditions.
func (q *Queries) InsertRule(ctx context.Context, r model.AutoAnalyticalRule) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO analytic_rules(id, name, priority, active, target_account_id)
	VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Priority, boolToInt(r.Active), r.TargetAccountID)
	if err != nil {
		return fmt.Errorf("inserting rule %s: %w", r.Name, err)
	}
	for i, c := range r.Conditions {
		_, err := q.db.ExecContext(ctx, `
		INSERT INTO analytic_rule_conditions(id, rule_id, seq, field, operator, value)
		VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, r.ID, i, string(c.Field), string(c.Operator), c.Value)
		if err != nil {
			return fmt.Errorf("inserting rule condition %d: %w", i, err)
		}
	}
	return nil
}

// GetRule returns a rule with its conditions.
func (q *Queries) GetRule(ctx context.Context, ruleID string) (model.AutoAnalyticalRule, error) {
	var r model.AutoAnalyticalRule
	var active int
	err := q.db.QueryRowContext(ctx, `SELECT id, name, priority, active, target_account_id FROM analytic_rules WHERE id = ?`, ruleID).
		Scan(&r.ID, &r.Name, &r.Priority, &active, &r.TargetAccountID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AutoAnalyticalRule{}, ledgererr.NotFoundf("rule %s", ruleID)
	}
	if err != nil {
		return model.AutoAnalyticalRule{}, err
	}
	r.Active = active != 0

	rules, err := q.attachConditions(ctx, []model.AutoAnalyticalRule{r})
	if err != nil {
		return model.AutoAnalyticalRule{}, err
	}
	return rules[0], nil
}

// ListRules returns rules in evaluation order: priority descending, then
// creation order. When activeOnly is set, inactive rules are skipped.
func (q *Queries) ListRules(ctx context.Context, activeOnly bool) ([]model.AutoAnalyticalRule, error) {
	query := `SELECT id, name, priority, active, target_account_id FROM analytic_rules`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY priority DESC, rowid`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	var rules []model.AutoAnalyticalRule
	for rows.Next() {
		var r model.AutoAnalyticalRule
		var active int
		if err := rows.Scan(&r.ID, &r.Name, &r.Priority, &active, &r.TargetAccountID); err != nil {
			rows.Close()
			return nil, err
		}
		r.Active = active != 0
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	return q.attachConditions(ctx, rules)
}

// SetRuleActive toggles a rule.
func (q *Queries) SetRuleActive(ctx context.Context, ruleID string, active bool) error {
	res, err := q.db.ExecContext(ctx, `UPDATE analytic_rules SET active = ? WHERE id = ?`, boolToInt(active), ruleID)
	if err != nil {
		return fmt.Errorf("updating rule %s: %w", ruleID, err)
	}
	return requireOneRow(res, "rule "+ruleID)
}

func (q *Queries) attachConditions(ctx context.Context, rules []model.AutoAnalyticalRule) ([]model.AutoAnalyticalRule, error) {
	if len(rules) == 0 {
		return rules, nil
	}
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.ID] = i
	}

	rows, err := q.db.QueryContext(ctx, `SELECT id, rule_id, field, operator, value FROM analytic_rule_conditions ORDER BY rule_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("reading rule conditions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.Condition
		var ruleID, field, op string
		if err := rows.Scan(&c.ID, &ruleID, &field, &op, &c.Value); err != nil {
			return nil, err
		}
		i, ok := index[ruleID]
		if !ok {
			continue
		}
		c.Field = model.ConditionField(field)
		c.Operator = model.ConditionOperator(op)
		rules[i].Conditions = append(rules[i].Conditions, c)
	}
	return rules, rows.Err()
}
