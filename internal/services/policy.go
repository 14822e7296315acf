package services

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/hostelcare/complaint-server/internal/models"
)

// Policy objects
const (
	ObjComplaint = "complaint"
	ObjAnalytics = "analytics"
	ObjUser      = "user"
	ObjActivity  = "activity"
)

// Policy actions
const (
	ActCreate     = "create"
	ActList       = "list"
	ActRead       = "read"
	ActTransition = "transition"
	ActEscalate   = "escalate"
	ActUpvote     = "upvote"
	ActExport     = "export"
	ActProvision  = "provision"
	ActStatus     = "status"
	ActDelete     = "delete"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// rolePermissions is the role gate. Scope (which complaints) is checked separately.
var rolePermissions = map[models.Role]map[string][]string{
	models.RoleStudent: {
		ObjComplaint: {ActCreate, ActList, ActRead, ActEscalate, ActUpvote},
		ObjAnalytics: {ActRead},
	},
	models.RoleWarden: {
		ObjComplaint: {ActList, ActRead, ActTransition, ActEscalate, ActUpvote, ActExport},
		ObjAnalytics: {ActRead},
	},
	models.RoleAdmin: {
		ObjComplaint: {ActList, ActRead, ActTransition, ActEscalate, ActUpvote, ActExport},
		ObjAnalytics: {ActRead},
		ObjUser:      {ActList, ActProvision, ActStatus, ActDelete},
		ObjActivity:  {ActList},
	},
}

// StudentActionScope decides which complaints a student may upvote or escalate
type StudentActionScope string

const (
	// ScopeOwn limits students to complaints they raised.
	ScopeOwn StudentActionScope = "own"
	// ScopeBlock opens their block's board: students see, upvote and
	// escalate every complaint in their block.
	ScopeBlock StudentActionScope = "block"
)

// ParseStudentActionScope validates a configured scope
func ParseStudentActionScope(s string) (StudentActionScope, error) {
	switch StudentActionScope(s) {
	case "", ScopeOwn:
		return ScopeOwn, nil
	case ScopeBlock:
		return ScopeBlock, nil
	}
	return "", fmt.Errorf("unknown student action scope %q", s)
}

// Policy combines the casbin role gate with complaint scope rules
type Policy struct {
	enforcer     *casbin.Enforcer
	studentScope StudentActionScope
}

// NewPolicy builds the enforcer from the in-code role table
func NewPolicy(studentScope StudentActionScope) (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	var rules [][]string
	for role, objects := range rolePermissions {
		for obj, acts := range objects {
			for _, act := range acts {
				rules = append(rules, []string{string(role), obj, act})
			}
		}
	}
	if _, err := enforcer.AddPolicies(rules); err != nil {
		return nil, fmt.Errorf("load rbac policy: %w", err)
	}

	return &Policy{enforcer: enforcer, studentScope: studentScope}, nil
}

// Authorize checks that the actor's role may perform act on obj
func (p *Policy) Authorize(actor *models.User, obj, act string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	allowed, err := p.enforcer.Enforce(string(actor.Role), obj, act)
	if err != nil {
		return fmt.Errorf("enforce policy: %w", err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s may not %s %s", ErrForbidden, actor.Role, act, obj)
	}
	return nil
}

// ScopeFilter narrows a requested listing to what the actor may see.
// It returns false when the actor can see nothing at all.
func (p *Policy) ScopeFilter(actor *models.User, f models.ComplaintFilter) (models.ComplaintFilter, bool) {
	switch actor.Role {
	case models.RoleStudent:
		if p.sharesBlock(actor) {
			f.Block = actor.Block
		} else {
			f.StudentID = actor.ExternalID
		}
	case models.RoleWarden:
		if actor.Block == "" {
			return f, false
		}
		f.Block = actor.Block
	case models.RoleAdmin:
	default:
		return f, false
	}
	return f, true
}

// CanView reports whether the complaint is inside the actor's read scope
func (p *Policy) CanView(actor *models.User, c *models.Complaint) bool {
	switch actor.Role {
	case models.RoleStudent:
		if c.StudentID == actor.ExternalID {
			return true
		}
		return p.sharesBlock(actor) && c.Block == actor.Block
	case models.RoleWarden:
		return actor.Block != "" && c.Block == actor.Block
	case models.RoleAdmin:
		return true
	}
	return false
}

// CanAct reports whether the actor may upvote or escalate the complaint.
// Acting never reaches past what the actor can read.
func (p *Policy) CanAct(actor *models.User, c *models.Complaint) bool {
	return p.CanView(actor, c)
}

// sharesBlock reports whether a student reads their whole block's board
func (p *Policy) sharesBlock(actor *models.User) bool {
	return p.studentScope == ScopeBlock && actor.Block != ""
}
