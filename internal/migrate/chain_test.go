package migrate

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(s string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(s)}
}

func TestEmbeddedChain(t *testing.T) {
	chain, err := Embedded()
	require.NoError(t, err)

	steps := chain.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, "0001", steps[0].Version)
	assert.Equal(t, Base, steps[0].Revises)
	assert.Equal(t, "0002", steps[1].Version)
	assert.Equal(t, "0001", steps[1].Revises)
	assert.Equal(t, "add_field_1_to_users", steps[1].Name)
	assert.Equal(t, "0003", steps[2].Version)
	assert.Equal(t, "0003", chain.Head())

	for _, s := range steps {
		assert.NotEmpty(t, s.Up, s.String())
		assert.NotEmpty(t, s.Down, s.String())
	}
}

func TestLoad_OrdersByPredecessorNotFilename(t *testing.T) {
	fsys := fstest.MapFS{
		"a_first.up.sql":    file("-- revises: base\nCREATE TABLE a ();"),
		"a_first.down.sql":  file("DROP TABLE a;"),
		"b_second.up.sql":   file("\n-- revises: c\nCREATE TABLE b ();"),
		"b_second.down.sql": file("DROP TABLE b;"),
		"c_middle.up.sql":   file("-- revises: a\nCREATE TABLE c ();"),
		"c_middle.down.sql": file("DROP TABLE c;"),
		"README.md":         file("ignored"),
	}

	chain, err := Load(fsys)
	require.NoError(t, err)

	var versions []string
	for _, s := range chain.Steps() {
		versions = append(versions, s.Version)
	}
	assert.Equal(t, []string{"a", "c", "b"}, versions)
	assert.Equal(t, "b", chain.Head())

	step, ok := chain.Step("c")
	require.True(t, ok)
	assert.Equal(t, "a", step.Revises)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "missing down",
			fsys: fstest.MapFS{
				"0001_x.up.sql": file("-- revises: base\nSELECT 1;"),
			},
		},
		{
			name: "orphan down",
			fsys: fstest.MapFS{
				"0001_x.up.sql":   file("-- revises: base\nSELECT 1;"),
				"0001_x.down.sql": file("SELECT 1;"),
				"0002_y.down.sql": file("SELECT 1;"),
			},
		},
		{
			name: "missing header",
			fsys: fstest.MapFS{
				"0001_x.up.sql":   file("CREATE TABLE x ();"),
				"0001_x.down.sql": file("DROP TABLE x;"),
			},
		},
		{
			name: "unknown predecessor",
			fsys: fstest.MapFS{
				"0001_x.up.sql":   file("-- revises: 0000"),
				"0001_x.down.sql": file("SELECT 1;"),
			},
		},
		{
			name: "branching",
			fsys: fstest.MapFS{
				"0001_x.up.sql":   file("-- revises: base"),
				"0001_x.down.sql": file("SELECT 1;"),
				"0002_y.up.sql":   file("-- revises: 0001"),
				"0002_y.down.sql": file("SELECT 1;"),
				"0003_z.up.sql":   file("-- revises: 0001"),
				"0003_z.down.sql": file("SELECT 1;"),
			},
		},
		{
			name: "cycle detached from base",
			fsys: fstest.MapFS{
				"0001_x.up.sql":   file("-- revises: base"),
				"0001_x.down.sql": file("SELECT 1;"),
				"0002_y.up.sql":   file("-- revises: 0003"),
				"0002_y.down.sql": file("SELECT 1;"),
				"0003_z.up.sql":   file("-- revises: 0002"),
				"0003_z.down.sql": file("SELECT 1;"),
			},
		},
		{
			name: "bad file name",
			fsys: fstest.MapFS{
				"nounderscore.up.sql": file("-- revises: base"),
			},
		},
		{
			name: "reserved version",
			fsys: fstest.MapFS{
				"head_x.up.sql":   file("-- revises: base"),
				"head_x.down.sql": file("SELECT 1;"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.fsys)
			assert.ErrorIs(t, err, ErrInvalidChain)
		})
	}
}

func TestChainPosition(t *testing.T) {
	chain, err := Embedded()
	require.NoError(t, err)

	pos, err := chain.position(Base)
	require.NoError(t, err)
	assert.Equal(t, -1, pos)

	pos, err = chain.position(Head)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	pos, err = chain.position("0002")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	_, err = chain.position("9999")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestLoad_EmptyChain(t *testing.T) {
	chain, err := Load(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, chain.Steps())
	assert.Equal(t, Base, chain.Head())
}
