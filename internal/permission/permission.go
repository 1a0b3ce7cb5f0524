// Package permission decides who may create, see, edit and delete files and
// wiki pages. Every predicate is a pure function of the acting user, the
// project and the entity; a denial is a false result, never an error.
//
// Membership is checked first. An entity that does not belong to the project
// passed in is treated as foreign and every entity predicate returns false.
package permission

import (
	"github.com/mesh-intelligence/collab/pkg/types"
)

// member reports whether u belongs to p. Nil users and projects are never
// members.
func member(u types.User, p types.Project) bool {
	return u != nil && p != nil && p.HasMember(u)
}

func owns(p types.Project, projectID string) bool {
	return p != nil && p.ProjectID() == projectID
}

func manageFiles(u types.User, p types.Project) bool {
	return u != nil && p != nil && u.HasPermission(p, types.CanManageFiles)
}

func manageWiki(u types.User, p types.Project) bool {
	return u != nil && p != nil && u.HasPermission(p, types.CanManageWikiPages)
}

// CanCreateFile reports whether u may upload new files to p.
func CanCreateFile(u types.User, p types.Project) bool {
	return u != nil && p != nil && u.HasPermission(p, types.CanUploadFiles)
}

// CanEditFile allows members who manage files, and the user who uploaded the
// file's latest revision.
func CanEditFile(u types.User, p types.Project, f *types.FileArtifact) bool {
	if f == nil || !owns(p, f.ProjectID) || !member(u, p) {
		return false
	}
	if manageFiles(u, p) {
		return true
	}
	owner := f.OwnerID()
	return owner != "" && owner == u.UserID()
}

// CanDeleteFile requires the manage capability; owning the file is not
// enough.
func CanDeleteFile(u types.User, p types.Project, f *types.FileArtifact) bool {
	if f == nil || !owns(p, f.ProjectID) || !member(u, p) {
		return false
	}
	return manageFiles(u, p)
}

// CanSeeFile hides private files from members outside the owner company
// unless they manage files.
func CanSeeFile(u types.User, p types.Project, f *types.FileArtifact) bool {
	if f == nil || !owns(p, f.ProjectID) || !member(u, p) {
		return false
	}
	if manageFiles(u, p) {
		return true
	}
	return !f.IsPrivate || u.MemberOfOwner()
}

// CanDownloadFile is CanSeeFile.
func CanDownloadFile(u types.User, p types.Project, f *types.FileArtifact) bool {
	return CanSeeFile(u, p, f)
}

// CanManageFile is the bare manage capability, without a membership check.
func CanManageFile(u types.User, p types.Project, f *types.FileArtifact) bool {
	if f == nil || !owns(p, f.ProjectID) {
		return false
	}
	return manageFiles(u, p)
}

// CanChangeFileOptions guards privacy, visibility and comment settings.
func CanChangeFileOptions(u types.User, p types.Project, f *types.FileArtifact) bool {
	return u != nil && u.MemberOfOwner() && CanEditFile(u, p, f)
}

// CanCommentOnFile requires membership and comments enabled on the file.
func CanCommentOnFile(u types.User, p types.Project, f *types.FileArtifact) bool {
	if f == nil || !owns(p, f.ProjectID) {
		return false
	}
	return u != nil && p != nil && u.MemberOf(p) && f.CommentsEnabled
}

// CanCreateWikiPage requires an active project and the wiki capability.
func CanCreateWikiPage(u types.User, p types.Project) bool {
	return p != nil && p.IsActive() && member(u, p) && manageWiki(u, p)
}

// CanEditWikiPage allows wiki managers and the page's creator while the
// project is active.
func CanEditWikiPage(u types.User, p types.Project, w *types.WikiPage) bool {
	if w == nil || !owns(p, w.ProjectID) || !p.IsActive() || !member(u, p) {
		return false
	}
	return manageWiki(u, p) || (w.CreatedBy != "" && w.CreatedBy == u.UserID())
}

// CanDeleteWikiPage requires the wiki capability while the project is
// active.
func CanDeleteWikiPage(u types.User, p types.Project, w *types.WikiPage) bool {
	if w == nil || !owns(p, w.ProjectID) || !p.IsActive() || !member(u, p) {
		return false
	}
	return manageWiki(u, p)
}

// CanSeeWikiPage requires membership only.
func CanSeeWikiPage(u types.User, p types.Project, w *types.WikiPage) bool {
	return w != nil && owns(p, w.ProjectID) && member(u, p)
}
