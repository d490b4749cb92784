package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]Rule)
	registryMu sync.RWMutex
)

// RegisterRule adds a best-practice rule to the registry.
// Panics if a rule with the same ID is already registered.
func RegisterRule(rule Rule) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if rule.ID == "" {
		panic("rule registered without an ID")
	}
	if rule.Evaluate == nil {
		panic(fmt.Sprintf("rule %s has no Evaluate func", rule.ID))
	}
	if _, exists := registry[rule.ID]; exists {
		panic(fmt.Sprintf("rule already registered: %s", rule.ID))
	}

	registry[rule.ID] = rule
}

// GetRule returns a rule by ID.
func GetRule(id string) (Rule, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	rule, ok := registry[id]
	return rule, ok
}

// AllRules returns every registered rule.
// Sorted by category order then by ID for consistent output.
func AllRules() []Rule {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Rule, 0, len(registry))
	for _, rule := range registry {
		result = append(result, rule)
	}

	sort.Slice(result, func(i, j int) bool {
		ci, cj := result[i].Category.order(), result[j].Category.order()
		if ci != cj {
			return ci < cj
		}
		return result[i].ID < result[j].ID
	})

	return result
}

// RulesByCategory returns the rules of one category, sorted by ID.
func RulesByCategory(category RuleCategory) []Rule {
	var result []Rule
	for _, rule := range AllRules() {
		if rule.Category == category {
			result = append(result, rule)
		}
	}
	return result
}

// RuleCount returns the number of registered rules.
func RuleCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// ClearRules removes all registered rules.
// Primarily useful for testing.
func ClearRules() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Rule)
}
