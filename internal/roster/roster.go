// Package roster loads users and projects from a YAML file and exposes them
// as types.User and types.Project. It stands in for the account system of a
// hosting application when collab runs from the command line.
package roster

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/collab/pkg/types"
)

// Lookup errors.
var (
	ErrUnknownUser    = errors.New("unknown user")
	ErrUnknownProject = errors.New("unknown project")
)

// File is the on-disk roster layout.
type File struct {
	// Owner names the company that owns the installation.
	Owner    string         `yaml:"owner"`
	Users    []UserEntry    `yaml:"users"`
	Projects []ProjectEntry `yaml:"projects"`
}

// UserEntry describes one account.
type UserEntry struct {
	ID      string `yaml:"id"`
	Company string `yaml:"company"`
	Admin   bool   `yaml:"admin,omitempty"`
}

// ProjectEntry describes one project. Members maps user IDs to the
// capabilities they hold there; a member may hold none.
type ProjectEntry struct {
	ID      string              `yaml:"id"`
	Active  *bool               `yaml:"active,omitempty"`
	Members map[string][]string `yaml:"members"`
}

// Roster is an immutable, loaded roster.
type Roster struct {
	owner    string
	users    map[string]*User
	projects map[string]*Project
}

// Load reads and parses the roster at path.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return Parse(data)
}

// Parse builds a Roster from YAML. Projects default to active.
func Parse(data []byte) (*Roster, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	return New(f)
}

// New builds a Roster from an in-memory File.
func New(f File) (*Roster, error) {
	r := &Roster{
		owner:    f.Owner,
		users:    make(map[string]*User, len(f.Users)),
		projects: make(map[string]*Project, len(f.Projects)),
	}
	for _, u := range f.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("roster user: %w", types.ErrInvalidID)
		}
		r.users[u.ID] = &User{id: u.ID, company: u.Company, admin: u.Admin, roster: r}
	}
	for _, p := range f.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("roster project: %w", types.ErrInvalidID)
		}
		active := p.Active == nil || *p.Active
		members := make(map[string][]string, len(p.Members))
		for uid, caps := range p.Members {
			if _, ok := r.users[uid]; !ok {
				return nil, fmt.Errorf("project %s member %s: %w", p.ID, uid, ErrUnknownUser)
			}
			members[uid] = slices.Clone(caps)
		}
		r.projects[p.ID] = &Project{id: p.ID, active: active, members: members}
	}
	return r, nil
}

// User returns the account with id.
func (r *Roster) User(id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownUser)
	}
	return u, nil
}

// Project returns the project with id.
func (r *Roster) Project(id string) (*Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownProject)
	}
	return p, nil
}

// Write saves f to path atomically.
func Write(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding roster: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".roster-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing roster: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing roster: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming roster: %w", err)
	}
	return nil
}

// Sample returns a starter roster with one owner-company user who can manage
// everything in a single project.
func Sample(owner, userID, projectID string) File {
	return File{
		Owner: owner,
		Users: []UserEntry{{ID: userID, Company: owner, Admin: true}},
		Projects: []ProjectEntry{{
			ID: projectID,
			Members: map[string][]string{
				userID: {types.CanUploadFiles, types.CanManageFiles, types.CanManageWikiPages},
			},
		}},
	}
}

// User is a roster account.
type User struct {
	id      string
	company string
	admin   bool
	roster  *Roster
}

// UserID implements types.User.
func (u *User) UserID() string { return u.id }

// IsAdmin implements types.User.
func (u *User) IsAdmin() bool { return u.admin }

// MemberOfOwner implements types.User.
func (u *User) MemberOfOwner() bool {
	return u.roster.owner != "" && u.company == u.roster.owner
}

// MemberOf implements types.User.
func (u *User) MemberOf(p types.Project) bool {
	return p != nil && p.HasMember(u)
}

// HasPermission implements types.User. Non-members hold no capabilities.
func (u *User) HasPermission(p types.Project, capability string) bool {
	if p == nil {
		return false
	}
	rp, ok := u.roster.projects[p.ProjectID()]
	if !ok {
		return false
	}
	caps, member := rp.members[u.id]
	return member && slices.Contains(caps, capability)
}

// Project is a roster project.
type Project struct {
	id      string
	active  bool
	members map[string][]string
}

// ProjectID implements types.Project.
func (p *Project) ProjectID() string { return p.id }

// IsActive implements types.Project.
func (p *Project) IsActive() bool { return p.active }

// HasMember implements types.Project.
func (p *Project) HasMember(u types.User) bool {
	if u == nil {
		return false
	}
	_, ok := p.members[u.UserID()]
	return ok
}

// Members returns the IDs of the project's members.
func (p *Project) Members() []string {
	ids := make([]string, 0, len(p.members))
	for id := range p.members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
