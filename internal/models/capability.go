package models

// Capability names a single action a role may perform. The role to
// capability mapping is resolved once per request by middleware instead of
// re-deriving role checks inside each handler.
type Capability string

const (
	CapSubmitSetoran    Capability = "setoran:submit"
	CapReviewSetoran    Capability = "setoran:review"
	CapViewOwnSetoran   Capability = "setoran:view-own"
	CapViewClassSetoran Capability = "setoran:view-class"
	CapAnswerQuiz       Capability = "quiz:answer"
	CapManageQuiz       Capability = "quiz:manage"
	CapViewQuiz         Capability = "quiz:view"
	CapViewOwnProgress  Capability = "progress:view-own"
	CapViewChildren     Capability = "progress:view-children"
	CapViewAnyProgress  Capability = "progress:view-any"
	CapGrantLabel       Capability = "label:grant"
	CapManageUsers      Capability = "users:manage"
	CapManageOrganizes  Capability = "organizes:manage"
)

var roleCapabilities = map[UserRole][]Capability{
	RoleSiswa: {
		CapSubmitSetoran,
		CapViewOwnSetoran,
		CapAnswerQuiz,
		CapViewQuiz,
		CapViewOwnProgress,
	},
	RoleGuru: {
		CapReviewSetoran,
		CapViewClassSetoran,
		CapManageQuiz,
		CapViewQuiz,
		CapGrantLabel,
		CapViewAnyProgress,
	},
	RoleOrtu: {
		CapViewChildren,
	},
	RoleAdmin: {
		CapReviewSetoran,
		CapViewClassSetoran,
		CapManageQuiz,
		CapViewQuiz,
		CapGrantLabel,
		CapViewAnyProgress,
		CapManageUsers,
		CapManageOrganizes,
	},
}

// CapabilitySet is the resolved set of actions for one role.
type CapabilitySet map[Capability]struct{}

// Has reports whether the capability is present.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// CapabilitiesFor resolves the capability set for a role.
func CapabilitiesFor(role UserRole) CapabilitySet {
	caps := roleCapabilities[role]
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}
