package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSnapshotYAML(t *testing.T) {
	snapshot, err := ParseSnapshotYAML([]byte(`
tables:
  dbo.Blogs:
    columns:
      - name: Id
        type: Int32
        nullable: false
        identity: true
      - name: Title
        old_name: Name
        type: string
        max_length: 200
    primary_key:
      columns: [Id]
    indexes:
      - columns: [Title]
        unique: true
`))
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snapshot.Version)

	blogs := snapshot.Tables["dbo.Blogs"]
	require.NotNil(t, blogs)
	require.Len(t, blogs.Columns, 2)
	assert.Equal(t, Int32, blogs.Columns[0].Type)
	assert.True(t, blogs.Columns[0].Identity)
	require.NotNil(t, blogs.Columns[0].Nullable)
	assert.False(t, *blogs.Columns[0].Nullable)
	assert.Equal(t, String, blogs.Columns[1].Type)
	assert.Equal(t, "Name", blogs.Columns[1].OldName)
	assert.Equal(t, 200, *blogs.Columns[1].MaxLength)
	assert.Equal(t, []string{"Id"}, blogs.PrimaryKey.Columns)
	assert.True(t, blogs.Indexes[0].Unique)
}

func TestParseSnapshotYAMLErrors(t *testing.T) {
	_, err := ParseSnapshotYAML([]byte("tables:\n  T:\n    colums: []\n"))
	assert.ErrorContains(t, err, "failed to parse model")

	_, err = ParseSnapshotYAML([]byte("tables:\n  T:\n    columns:\n      - type: Int32\n"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseSnapshotYAML([]byte("tables:\n  T:\n    columns:\n      - name: A\n        type: Blob\n"))
	assert.Error(t, err)

	empty, err := ParseSnapshotYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Tables)
}
