package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formwizard/pkg/metrics"
	"github.com/goliatone/go-formwizard/pkg/submit"
	"github.com/goliatone/go-formwizard/pkg/wizard"
	"github.com/goliatone/go-formwizard/pkg/wizards"
)

func TestObserverCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := metrics.NewObserver(reg)

	ctrl, err := wizard.New(wizards.TeamMember(),
		wizard.WithObserver(obs),
		wizard.WithSubmitter(submit.Func(func(context.Context, map[string]any) (submit.Result, error) {
			return submit.Result{}, errors.New("offline")
		})),
	)
	require.NoError(t, err)

	assert.False(t, ctrl.GoNext())
	require.NoError(t, ctrl.UpdateField(wizards.FieldDepartment, "Maintenance"))
	_, err = ctrl.Submit(context.Background())
	require.Error(t, err)

	guard := wizard.NewGuard(ctrl, nil)
	req := guard.RequestClose()
	require.NotNil(t, req)
	req.Confirm()

	count, err := testutil.GatherAndCount(reg, "formwizard_steps_blocked_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for _, name := range []string{
		"formwizard_permissions_derivations_total",
		"formwizard_submissions_total",
		"formwizard_sessions_closes_total",
	} {
		count, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Equal(t, 1, count, name)
	}
}

func TestObserverLabelsSubmissionResults(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := metrics.NewObserver(reg)

	obs.Observe(wizard.Event{Kind: wizard.EventSubmitted, Wizard: "tenant"})
	obs.Observe(wizard.Event{Kind: wizard.EventSubmitted, Wizard: "tenant"})
	obs.Observe(wizard.Event{Kind: wizard.EventSubmitFailed, Wizard: "tenant"})

	families, err := reg.Gather()
	require.NoError(t, err)

	totals := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "formwizard_submissions_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "result" {
					totals[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, map[string]float64{"accepted": 2, "failed": 1}, totals)
}
