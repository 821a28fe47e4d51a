package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/callguard/callguard/pkg/domain/safety"
)

func TestSafetyConfigThresholds_DefaultsWhenEmpty(t *testing.T) {
	cfg := SafetyConfig{}

	thresholds := cfg.DecisionThresholds()

	for _, c := range safety.Categories() {
		assert.Equal(t, 4, thresholds[c])
	}
}

func TestSafetyConfigThresholds_OverridesAndIgnoresUnknown(t *testing.T) {
	cfg := SafetyConfig{Thresholds: map[string]int{
		"Violence": 2,
		"Sexual":   safety.DisabledThreshold,
		"Firearm":  1,
	}}

	thresholds := cfg.DecisionThresholds()

	assert.Equal(t, 2, thresholds[safety.CategoryViolence])
	assert.Equal(t, safety.DisabledThreshold, thresholds[safety.CategorySexual])
	assert.Equal(t, 4, thresholds[safety.CategoryHate])
	assert.NotContains(t, thresholds, safety.Category("Firearm"))
}
