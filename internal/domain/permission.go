package domain

// Access is a tri-state permission value. Deny is distinct from Unset: a
// denied right is an explicit overwrite, an unset right falls through to
// channel defaults.
type Access int

const (
	AccessUnset Access = iota
	AccessAllow
	AccessDeny
)

// PrincipalKind enumerates who an overwrite can apply to.
type PrincipalKind string

const (
	PrincipalEveryone PrincipalKind = "EVERYONE"
	PrincipalMember   PrincipalKind = "MEMBER"
	PrincipalRole     PrincipalKind = "ROLE"
	PrincipalBot      PrincipalKind = "BOT"
)

// Principal identifies the subject of an overwrite. ID is a member or role
// identifier; it is empty for the everyone default.
type Principal struct {
	Kind PrincipalKind
	ID   string
}

// Overwrite is a per-channel, per-principal visibility/post-rights override
// applied on top of default permissions.
type Overwrite struct {
	Principal Principal
	View      Access
	Send      Access
	Attach    Access
}
