package roster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/collab/pkg/types"
)

const sampleYAML = `
owner: acme
users:
  - id: alice
    company: acme
  - id: bob
    company: contractors
  - id: carol
    company: acme
projects:
  - id: web
    members:
      alice: [can_upload_files, can_manage_files]
      bob: [can_upload_files]
  - id: legacy
    active: false
    members:
      carol: [can_manage_wiki_pages]
`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	alice, err := r.User("alice")
	require.NoError(t, err)
	bob, err := r.User("bob")
	require.NoError(t, err)
	carol, err := r.User("carol")
	require.NoError(t, err)
	web, err := r.Project("web")
	require.NoError(t, err)
	legacy, err := r.Project("legacy")
	require.NoError(t, err)

	assert.True(t, web.IsActive())
	assert.False(t, legacy.IsActive())
	assert.Equal(t, []string{"alice", "bob"}, web.Members())

	assert.True(t, alice.MemberOfOwner())
	assert.False(t, bob.MemberOfOwner())

	assert.True(t, alice.MemberOf(web))
	assert.False(t, carol.MemberOf(web))

	assert.True(t, alice.HasPermission(web, types.CanManageFiles))
	assert.False(t, bob.HasPermission(web, types.CanManageFiles))
	assert.True(t, bob.HasPermission(web, types.CanUploadFiles))
	assert.False(t, carol.HasPermission(web, types.CanUploadFiles), "non-members hold nothing")
	assert.True(t, carol.HasPermission(legacy, types.CanManageWikiPages))

	_, err = r.User("dave")
	assert.ErrorIs(t, err, ErrUnknownUser)
	_, err = r.Project("nope")
	assert.ErrorIs(t, err, ErrUnknownProject)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{name: "member not a user", yaml: "projects:\n  - id: p\n    members:\n      ghost: []\n", wantErr: ErrUnknownUser},
		{name: "user without id", yaml: "users:\n  - company: acme\n", wantErr: types.ErrInvalidID},
		{name: "project without id", yaml: "projects:\n  - members: {}\n", wantErr: types.ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := Parse([]byte("users: [unclosed"))
	assert.Error(t, err)
}

func TestWriteAndLoadSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, Write(path, Sample("acme", "admin", "default")))

	r, err := Load(path)
	require.NoError(t, err)
	u, err := r.User("admin")
	require.NoError(t, err)
	p, err := r.Project("default")
	require.NoError(t, err)

	assert.True(t, u.IsAdmin())
	assert.True(t, u.MemberOfOwner())
	assert.True(t, p.IsActive())
	for _, c := range []string{types.CanUploadFiles, types.CanManageFiles, types.CanManageWikiPages} {
		assert.True(t, u.HasPermission(p, c), c)
	}
}
