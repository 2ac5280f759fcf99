package trip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
)

func TestDescribeModes(t *testing.T) {
	cat := catalog.Default()

	infos := DescribeModes(cat)
	require.Len(t, infos, 11)
	for i, m := range cat.TransportModes() {
		assert.Equal(t, m.ID, infos[i].ID, "catalog order")
	}
	assert.Equal(t, "taxi", infos[0].ID)
	assert.Equal(t, 2.0, infos[0].Parameters.PerKm)

	walk, err := DescribeMode(cat, "walk")
	require.NoError(t, err)
	assert.Equal(t, "Walking", walk.Name)
	assert.Equal(t, 5.0, walk.Parameters.SpeedKmh)

	subway, err := DescribeMode(cat, "subway")
	require.NoError(t, err)
	assert.True(t, subway.Parameters.Scheduled)

	_, err = DescribeMode(cat, "hovercraft")
	assert.ErrorIs(t, err, ErrModeNotFound)
}
