package domain

// ActorKind tags the recorded approver type on a decided subject.
type ActorKind string

const (
	ActorAdmin             ActorKind = "admin"
	ActorAutomatedReviewer ActorKind = "automated_reviewer"
	ActorSystem            ActorKind = "system"
)

// Actor is a closed union of the identities allowed to call the decision
// surface. Each variant carries exactly the fields its kind needs; callers
// pattern-match with a type switch.
type Actor interface {
	Kind() ActorKind
	ActorID() string
}

// Admin is a human administrator, authorized for every category by role.
type Admin struct {
	ID string
}

func (a Admin) Kind() ActorKind { return ActorAdmin }
func (a Admin) ActorID() string { return a.ID }

// AutomatedReviewer is a bot reviewer bound to an external channel. Its
// authority comes from per-category grants keyed by its id.
type AutomatedReviewer struct {
	ID           string
	BoundChannel string
}

func (r AutomatedReviewer) Kind() ActorKind { return ActorAutomatedReviewer }
func (r AutomatedReviewer) ActorID() string { return r.ID }

// System is never permitted to decide; system-initiated changes bypass the
// approval surface entirely. The variant exists so the denial is explicit.
type System struct{}

func (System) Kind() ActorKind { return ActorSystem }
func (System) ActorID() string { return "system" }
