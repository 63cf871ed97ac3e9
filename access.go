package pageauth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccessDecision is the result of a page access check
type AccessDecision struct {
	Allowed bool      `json:"allowed"`
	Path    string    `json:"path"`
	Role    UserRole  `json:"role"`
	Rule    *PageRule `json:"rule,omitempty"`
}

// AccessChecker answers whether a role may open a page path. Pages without a
// rule are open to any authenticated user.
type AccessChecker struct {
	rules  PageRules
	logger Logger
}

func NewAccessChecker(rules PageRules) *AccessChecker {
	return &AccessChecker{
		rules:  rules,
		logger: defLogger{},
	}
}

func (s *AccessChecker) WithLogger(l Logger) *AccessChecker {
	if l != nil {
		s.logger = l
	}
	return s
}

// CanAccessPage resolves the rule for path and checks role membership
func (s *AccessChecker) CanAccessPage(ctx context.Context, role UserRole, path string) (AccessDecision, error) {
	decision := AccessDecision{
		Path: NormalizePagePath(path),
		Role: role,
	}

	rule, err := s.rules.FindForPath(ctx, path)
	if err != nil {
		if errors.IsNotFound(err) {
			decision.Allowed = true
			return decision, nil
		}
		return decision, errors.Wrap(err, errors.CategoryInternal, "failed to resolve page rule").
			WithMetadata(map[string]any{"path": path})
	}

	decision.Rule = rule
	decision.Allowed = rule.Allows(role)

	if !decision.Allowed {
		s.logger.Debug("page access denied", "path", decision.Path, "role", role, "rule", rule.Path)
	}

	return decision, nil
}
