package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/checkfox/lead_engage/internal/config"
	"github.com/checkfox/lead_engage/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain_ExitsOnInvalidConfig(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsOnInvalidConfigHelper")
	cmd.Env = withEnvOverrides(os.Environ(), map[string]string{
		"LEAD_ENGAGE_RUN_MAIN": "1",
		"ENABLE_AUTH":          "true",
		"SHARED_SECRET":        "",
	})

	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected non-zero exit code, got success; output: %s", string(output))
	}

	if !strings.Contains(string(output), "Failed to load configuration") {
		t.Fatalf("expected failure message to mention configuration load; output: %s", string(output))
	}
}

func TestMain_ExitsOnInvalidConfigHelper(t *testing.T) {
	if os.Getenv("LEAD_ENGAGE_RUN_MAIN") != "1" {
		return
	}

	main()
}

type stubRuleRepo struct {
	rules []models.AutomationRule
}

func (s *stubRuleRepo) Save(context.Context, models.AutomationRule) error { return nil }

func (s *stubRuleRepo) List(context.Context) ([]models.AutomationRule, error) {
	return s.rules, nil
}

func TestBuildCore_LoadsCustomRules(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(rulesFile, []byte(`[
		{"name": "from_file", "trigger": "new_lead", "actions": [{"type": "notify_sales_team"}]}
	]`), 0o600))

	cfg := &config.Config{Engagement: config.EngagementConfig{CustomRulesFile: rulesFile}}
	repo := &stubRuleRepo{rules: []models.AutomationRule{
		{Name: "from_db", Trigger: "call_missed", Priority: models.PriorityLow},
		{Name: "missed_call_recovery", Trigger: "call_missed"},
	}}

	core, err := buildCore(context.Background(), cfg, repo)
	require.NoError(t, err)

	rules := core.Engine().Rules()
	assert.Len(t, rules, 9)

	fromFile, ok := core.Engine().Rule("from_file")
	require.True(t, ok)
	assert.True(t, fromFile.Custom)

	_, ok = core.Engine().Rule("from_db")
	assert.True(t, ok)
	assert.Equal(t, "heuristic", core.Scorer().Name())
}

func TestBuildCore_LoadsScoringModel(t *testing.T) {
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(modelFile, []byte(`{"weights": [0.1, 0.2, 0.3, 0.1, 0.2, 0.3, 0.1], "bias": -0.5}`), 0o600))

	cfg := &config.Config{Engagement: config.EngagementConfig{ScoringModelPath: modelFile}}

	core, err := buildCore(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "trained", core.Scorer().Name())
}

func TestBuildCore_BadModelFile(t *testing.T) {
	cfg := &config.Config{Engagement: config.EngagementConfig{ScoringModelPath: filepath.Join(t.TempDir(), "missing.json")}}

	_, err := buildCore(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func withEnvOverrides(base []string, overrides map[string]string) []string {
	filtered := make([]string, 0, len(base))
	for _, entry := range base {
		keep := true
		for key := range overrides {
			if strings.HasPrefix(entry, key+"=") {
				keep = false
				break
			}
		}
		if keep {
			filtered = append(filtered, entry)
		}
	}

	for key, value := range overrides {
		filtered = append(filtered, key+"="+value)
	}

	return filtered
}
