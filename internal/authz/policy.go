package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ryanuber/go-glob"

	"github.com/allisson/dynamic-secrets/internal/errors"
)

// Effect is the outcome a statement contributes when it matches.
type Effect string

// Statement effects. A matching deny always wins over any allow.
const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Statement is one rule inside a policy document. Empty Actions,
// Environments or SecretPath match anything; Metadata entries are
// conditions that must all be satisfied by the subject's tags.
type Statement struct {
	Effect       Effect   `json:"effect"`
	Actions      []Action `json:"actions"`
	Environments []string `json:"environments"`
	SecretPath   string   `json:"secret_path"`
	Metadata     []Tag    `json:"metadata"`
}

// Document binds a set of statements to actors. Actors holds actor IDs; the
// wildcard "*" binds the document to every actor.
type Document struct {
	Name       string      `json:"name"`
	Actors     []string    `json:"actors"`
	Statements []Statement `json:"statements"`
}

// PolicyChecker evaluates policy documents. Denial is the default: an actor
// with no matching allow statement is refused.
type PolicyChecker struct {
	documents []Document
}

// NewPolicyChecker creates a checker over the given documents.
func NewPolicyChecker(documents []Document) *PolicyChecker {
	return &PolicyChecker{documents: documents}
}

// LoadDocuments reads policy documents from a JSON file.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read policy file")
	}

	var documents []Document
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, errors.Wrap(err, "failed to parse policy file")
	}

	for _, doc := range documents {
		for _, stmt := range doc.Statements {
			if stmt.Effect != EffectAllow && stmt.Effect != EffectDeny {
				return nil, errors.Wrap(
					errors.ErrInvalidInput,
					fmt.Sprintf("policy document %q has invalid effect %q", doc.Name, stmt.Effect),
				)
			}
		}
	}

	return documents, nil
}

// Can evaluates the documents bound to the actor. Deny overrides allow.
func (c *PolicyChecker) Can(_ context.Context, actor Actor, action Action, subject Subject) (bool, error) {
	allowed := false
	for _, doc := range c.documents {
		if !bindsActor(doc, actor) {
			continue
		}
		for _, stmt := range doc.Statements {
			if !statementMatches(stmt, action, subject) {
				continue
			}
			if stmt.Effect == EffectDeny {
				return false, nil
			}
			allowed = true
		}
	}
	return allowed, nil
}

// RequireCan is Can with denial mapped to a forbidden error.
func (c *PolicyChecker) RequireCan(ctx context.Context, actor Actor, action Action, subject Subject) error {
	ok, err := c.Can(ctx, actor, action, subject)
	if err != nil {
		return err
	}
	if !ok {
		return Deny(action, subject)
	}
	return nil
}

func bindsActor(doc Document, actor Actor) bool {
	for _, id := range doc.Actors {
		if id == "*" || id == actor.ID.String() {
			return true
		}
	}
	return false
}

func statementMatches(stmt Statement, action Action, subject Subject) bool {
	if len(stmt.Actions) > 0 && !containsAction(stmt.Actions, action) {
		return false
	}
	if len(stmt.Environments) > 0 && !matchesAny(stmt.Environments, subject.Environment) {
		return false
	}
	if stmt.SecretPath != "" && !glob.Glob(stmt.SecretPath, subject.SecretPath) {
		return false
	}
	for _, cond := range stmt.Metadata {
		if !hasTag(subject.Metadata, cond) {
			return false
		}
	}
	return true
}

func containsAction(actions []Action, action Action) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if glob.Glob(p, value) {
			return true
		}
	}
	return false
}

func hasTag(tags []Tag, cond Tag) bool {
	for _, tag := range tags {
		if tag.Key == cond.Key && glob.Glob(cond.Value, tag.Value) {
			return true
		}
	}
	return false
}
