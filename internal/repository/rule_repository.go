package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/checkfox/lead_engage/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a duplicate key
const uniqueViolation = "23505"

// RuleRepository persists custom automation rules so they survive restarts
type RuleRepository interface {
	// Save stores a new rule; returns an error wrapping models.ErrRuleExists on a duplicate name
	Save(ctx context.Context, rule models.AutomationRule) error

	// List returns all stored rules ordered by creation time
	List(ctx context.Context) ([]models.AutomationRule, error)
}

type ruleRepository struct {
	db *sql.DB
}

// NewRuleRepository creates a new RuleRepository instance
func NewRuleRepository(db *sql.DB) RuleRepository {
	return &ruleRepository{
		db: db,
	}
}

// Save stores a new rule
func (r *ruleRepository) Save(ctx context.Context, rule models.AutomationRule) error {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode rule conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode rule actions: %w", err)
	}

	query := `
		INSERT INTO automation_rule (name, trigger_name, description, conditions, actions, priority)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query, rule.Name, rule.Trigger, rule.Description, conditions, actions, rule.Priority)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", models.ErrRuleExists, rule.Name)
		}
		return fmt.Errorf("failed to save automation rule: %w", err)
	}

	return nil
}

// List returns all stored rules ordered by creation time
func (r *ruleRepository) List(ctx context.Context) ([]models.AutomationRule, error) {
	query := `
		SELECT name, trigger_name, COALESCE(description, ''), conditions, actions, priority
		FROM automation_rule
		ORDER BY created_at ASC, name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AutomationRule
	for rows.Next() {
		var rule models.AutomationRule
		var conditions, actions []byte
		if err := rows.Scan(&rule.Name, &rule.Trigger, &rule.Description, &conditions, &actions, &rule.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan automation rule: %w", err)
		}
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("failed to decode conditions for rule %s: %w", rule.Name, err)
		}
		if err := json.Unmarshal(actions, &rule.Actions); err != nil {
			return nil, fmt.Errorf("failed to decode actions for rule %s: %w", rule.Name, err)
		}
		rule.Custom = true
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating automation rules: %w", err)
	}

	return rules, nil
}
