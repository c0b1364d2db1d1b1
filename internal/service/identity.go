package service

import (
	"fitcoach/internal/domain"
)

// CoachToken is the login input that selects the coach role.
const CoachToken = "professor"

// Session is the resolved subject of a login.
type Session struct {
	Role      domain.Role `json:"role"`
	StudentID string      `json:"studentId,omitempty"`
	// Demo marks a local-only session: the remote backend was unreachable at
	// startup, so nothing is read from or written to it.
	Demo bool `json:"demo"`
}

func (s Session) IsCoach() bool {
	return s.Role == domain.RoleCoach
}

// CanAccess reports whether the session may read or write the student.
func (s Session) CanAccess(studentID string) bool {
	return s.IsCoach() || (s.Role == domain.RoleStudent && s.StudentID == studentID)
}

// StudentLookup finds a student by normalized email.
type StudentLookup interface {
	FindByEmail(email string) (domain.Student, bool)
}

// IdentityResolver maps a free-text login input to a session.
type IdentityResolver struct {
	students StudentLookup
	demo     bool
}

func NewIdentityResolver(students StudentLookup, demo bool) *IdentityResolver {
	return &IdentityResolver{students: students, demo: demo}
}

// Resolve trims and lowercases input. The coach token selects the coach
// role; otherwise the input must equal a student's normalized email.
func (r *IdentityResolver) Resolve(input string) (Session, error) {
	normalized := domain.NormalizeEmail(input)
	if normalized == CoachToken {
		return Session{Role: domain.RoleCoach, Demo: r.demo}, nil
	}
	student, ok := r.students.FindByEmail(normalized)
	if !ok {
		return Session{}, ErrIdentityNotFound
	}
	return Session{Role: domain.RoleStudent, StudentID: student.ID, Demo: r.demo}, nil
}
