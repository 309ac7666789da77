package sqlxrepos

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
)

type affected struct {
	n   int64
	err error
}

func (a affected) LastInsertId() (int64, error) { return 0, nil }
func (a affected) RowsAffected() (int64, error) { return a.n, a.err }

func Test_checkAffected(t *testing.T) {
	assert.NoError(t, checkAffected(affected{n: 1}))
	assert.Equal(t, profile.ErrNotFound, checkAffected(affected{n: 0}))

	err := checkAffected(affected{n: 2})
	assert.True(t, core.IsShutdown(err))
	assert.EqualError(t, err, "integrity issue: 2 profiles updated by id")

	driverErr := errors.New("driver does not count rows")
	assert.ErrorIs(t, checkAffected(affected{err: driverErr}), driverErr)
}
