package auth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// Field locations a rule can bind to.
const (
	LocationBody  = "body"
	LocationQuery = "query"
	LocationParam = "param"
)

// FieldRule is one declared constraint set for a single field of the
// incoming request.
type FieldRule struct {
	Location string
	Field    string
	Rules    []validation.Rule
}

// Body declares constraints against a JSON body field.
func Body(field string, rules ...validation.Rule) FieldRule {
	return FieldRule{Location: LocationBody, Field: field, Rules: rules}
}

// Query declares constraints against a query-string parameter.
func Query(field string, rules ...validation.Rule) FieldRule {
	return FieldRule{Location: LocationQuery, Field: field, Rules: rules}
}

// Param declares constraints against a route parameter.
func Param(field string, rules ...validation.Rule) FieldRule {
	return FieldRule{Location: LocationParam, Field: field, Rules: rules}
}

// RuleSet is the ordered list of field constraints a route declares. The
// order of declaration is the order violations are reported in.
type RuleSet struct {
	rules []FieldRule
}

// NewRuleSet builds a RuleSet from the given field rules.
func NewRuleSet(rules ...FieldRule) *RuleSet {
	return &RuleSet{rules: rules}
}

// Evaluate runs every declared constraint against the request and returns
// the full violation list; it never stops at the first failure. Handlers
// must not run when the result is non-empty.
func (rs *RuleSet) Evaluate(c *fiber.Ctx) []string {
	var body map[string]any
	if len(c.Body()) > 0 {
		// A malformed body leaves every body field absent, so required
		// rules report it field by field.
		_ = c.BodyParser(&body)
	}

	var violations []string
	for _, fr := range rs.rules {
		value := fr.value(c, body)
		if err := validation.Validate(value, fr.Rules...); err != nil {
			violations = append(violations,
				fmt.Sprintf("%s[%s]: %s", fr.Location, fr.Field, err.Error()))
		}
	}

	return violations
}

// Middleware returns the route-level guard: on any violation it raises a
// single ValidationError carrying one message per violation and the
// handler never executes.
func (rs *RuleSet) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if violations := rs.Evaluate(c); len(violations) > 0 {
			return NewValidationError(violations...)
		}
		return c.Next()
	}
}

func (fr FieldRule) value(c *fiber.Ctx, body map[string]any) any {
	switch fr.Location {
	case LocationBody:
		if body == nil {
			return nil
		}
		return body[fr.Field]
	case LocationQuery:
		if v := c.Query(fr.Field); v != "" {
			return v
		}
		return nil
	case LocationParam:
		if v := c.Params(fr.Field); v != "" {
			return v
		}
		return nil
	}
	return nil
}
