package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/kianfay/witnessrep/pkg/metrics"
)

func TestNewRegistryRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	mr := metrics.NewRegistry(reg)

	mr.RunsStarted.Inc()
	mr.RunsCompleted.Inc()
	mr.RunsAborted.WithLabelValues("insufficient_witnesses").Inc()
	mr.WitnessesPerRun.Observe(3)
	mr.VerificationsOK.Inc()
	mr.VerificationsFail.WithLabelValues("invariant_violated").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var m dto.Metric
	require.NoError(t, mr.RunsStarted.Write(&m))
	require.Equal(t, float64(1), m.GetCounter().GetValue())
}

func TestDefaultRegistryIsUsableWithoutConstruction(t *testing.T) {
	require.NotNil(t, metrics.Default)
	require.NotPanics(t, func() {
		metrics.Default.RunsStarted.Inc()
	})
}
