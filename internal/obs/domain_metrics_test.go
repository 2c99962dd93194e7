package obs_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/obs"
)

func TestDomainMetricsHelpers(t *testing.T) {
	obs.MustRegisterDomainMetrics("pos_test", prometheus.NewRegistry())

	before := testutil.ToFloat64(obs.BillsCalculatedTotal.WithLabelValues("adhoc"))
	obs.ObserveBill("adhoc", time.Millisecond)
	require.Equal(t, before+1, testutil.ToFloat64(obs.BillsCalculatedTotal.WithLabelValues("adhoc")))

	toggles := testutil.ToFloat64(obs.RuleTogglesTotal.WithLabelValues("discount", "enabled"))
	obs.CountRuleToggle("discount", true)
	require.Equal(t, toggles+1, testutil.ToFloat64(obs.RuleTogglesTotal.WithLabelValues("discount", "enabled")))
}
