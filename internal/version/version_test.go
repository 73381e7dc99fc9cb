package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldC := Version, Commit
	defer func() { Version, Commit = oldV, oldC }()

	Version, Commit = "1.2.3", ""
	assert.Equal(t, "magnet-finder v1.2.3", String())

	Commit = "abc123"
	assert.Equal(t, "magnet-finder v1.2.3 (abc123)", String())
	assert.Equal(t, "magnet-finder/1.2.3", UserAgent())
}
