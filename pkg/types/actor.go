package types

// Capabilities granted per project.
const (
	CanUploadFiles     = "can_upload_files"
	CanManageFiles     = "can_manage_files"
	CanManageWikiPages = "can_manage_wiki_pages"
)

// User is the authenticated account performing an operation. It is supplied
// by the caller on every call; nothing in this module keeps a current user.
type User interface {
	UserID() string
	// HasPermission reports whether the user holds capability on project.
	HasPermission(project Project, capability string) bool
	MemberOf(project Project) bool
	// MemberOfOwner reports whether the user belongs to the organisation
	// that owns the installation. Such users may see private content.
	MemberOfOwner() bool
	IsAdmin() bool
}

// Project is the container that files and wiki pages belong to.
type Project interface {
	ProjectID() string
	IsActive() bool
	HasMember(user User) bool
}

// Owner is anything a file can be attached to during batch intake.
type Owner interface {
	OwnerType() string
	OwnerID() string
	ProjectID() string
}

// ProjectOwner attaches files directly to a project's file collection.
type ProjectOwner struct {
	Project Project
}

// OwnerType implements Owner.
func (o ProjectOwner) OwnerType() string { return RelTypeProject }

// OwnerID implements Owner.
func (o ProjectOwner) OwnerID() string { return o.Project.ProjectID() }

// ProjectID implements Owner.
func (o ProjectOwner) ProjectID() string { return o.Project.ProjectID() }
