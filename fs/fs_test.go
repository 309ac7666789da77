package appfs_test

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/trezcool/yellowsub/fs"
)

func TestFS(t *testing.T) {
	files := []string{
		"migrations/00001_create_user_profile.sql",
		"migrations/00002_create_web_session.sql",
		"templates/pages/_base.gohtml",
		"templates/pages/index.gohtml",
		"templates/email/_base.gohtml",
		"templates/email/_base.txt",
		"templates/email/feedback.gohtml",
		"templates/email/feedback.txt",
	}
	for _, name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := fs.Stat(appfs.FS, name)
			assert.NoError(t, err)
		})
	}
}

func TestProfileMigration_FreeTextColumns(t *testing.T) {
	data, err := fs.ReadFile(appfs.FS, "migrations/00001_create_user_profile.sql")
	require.NoError(t, err)
	bounded := map[string]bool{"id": true, "username": true, "password_hash": true}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !strings.HasPrefix(fields[1], "VARCHAR") {
			continue
		}
		assert.True(t, bounded[fields[0]], "%s must not have a length limit", fields[0])
	}
}
