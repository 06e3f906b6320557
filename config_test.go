package callmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStrategy(t *testing.T) {
	assert.Equal(t, StrategyTags, Config{}.Strategy())
	assert.Equal(t, StrategyTags, Config{MetricPrefix: "x"}.Strategy())
	assert.Equal(t, StrategyLegacyKeys, Config{PublishGlobalMetrics: ptr(false)}.Strategy())
	assert.Equal(t, StrategyLegacyKeys, Config{PublishPerRegionMetrics: ptr(true)}.Strategy())
	assert.Equal(t, "tags", StrategyTags.String())
	assert.Equal(t, "legacy_keys", StrategyLegacyKeys.String())
}

func TestConfigValidate(t *testing.T) {
	valid := []string{"", "   ", "prefix", "my.app", "my-app", "ns:sub", "app_2"}
	for _, prefix := range valid {
		assert.NoError(t, Config{MetricPrefix: prefix}.Validate(), "prefix %q", prefix)
	}

	invalid := []string{"2fast", "a/b", "zoë", "x{y}"}
	for _, prefix := range invalid {
		err := Config{MetricPrefix: prefix}.Validate()
		require.Error(t, err, "prefix %q", prefix)
		assert.ErrorIs(t, err, ErrInvalidPrefix)
	}
}

func TestWithConfig(t *testing.T) {
	o := New(&mockRegistry{}, WithConfig(Config{
		MetricPrefix:         " aws ",
		PublishGlobalMetrics: ptr(true),
	}))
	assert.Equal(t, StrategyLegacyKeys, o.Strategy())
	assert.Equal(t, "aws", o.prefix)
	assert.True(t, o.global)
	assert.False(t, o.perRegion)
}
