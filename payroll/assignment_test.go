package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/teacher-payroll/formula"
	"github.com/warp/teacher-payroll/payroll"
)

func pricedReport(batch formula.BatchID, confirmed bool) payroll.ReportableItem {
	r := seminarReport("r1", "t1", date(2025, time.June, 1), 5)
	r.BatchID = batch
	r.IsConfirmed = confirmed
	return payroll.NewItem(payroll.Report{ActivityReport: r}, testPivot())
}

func TestAssign_Idempotent(t *testing.T) {
	// GIVEN: An unassigned, unconfirmed item
	// WHEN: Assigning it to B twice
	// THEN: Both calls succeed and the item ends in B

	it := pricedReport("", false)

	require.NoError(t, payroll.Assign(&it, "B"))
	require.NoError(t, payroll.Assign(&it, "B"))

	assert.Equal(t, formula.BatchID("B"), it.BatchID)
	assert.Equal(t, formula.BatchID("B"), it.Source.(payroll.Report).BatchID)
}

func TestAssign_ConfirmedAlwaysFails(t *testing.T) {
	for _, current := range []formula.BatchID{"", "A", "B"} {
		it := pricedReport(current, true)

		err := payroll.Assign(&it, "B")

		assert.ErrorIs(t, err, payroll.ErrAlreadyConfirmed, "current batch %q", current)
		assert.Equal(t, current, it.BatchID, "item must not change")
	}
}

func TestAssign_OtherBatchFails(t *testing.T) {
	it := pricedReport("A", false)

	err := payroll.Assign(&it, "B")

	require.ErrorIs(t, err, payroll.ErrAlreadyBatched)
	var aErr *payroll.AssignmentError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, formula.BatchID("A"), aErr.Current)
	assert.Equal(t, formula.BatchID("B"), aErr.Requested)
	assert.Equal(t, "r1", aErr.Item.ID)
	assert.Equal(t, formula.BatchID("A"), it.BatchID)
	assert.True(t, payroll.IsAssignmentConflict(err))
}

func TestAssign_UnassignThenReassign(t *testing.T) {
	it := pricedReport("A", false)

	require.NoError(t, payroll.Unassign(&it))
	assert.Equal(t, formula.BatchID(""), it.BatchID)
	require.NoError(t, payroll.Unassign(&it), "unassigning twice is a no-op")

	require.NoError(t, payroll.Assign(&it, "B"))
	assert.Equal(t, formula.BatchID("B"), it.BatchID)
}

func TestUnassign_ConfirmedFails(t *testing.T) {
	it := pricedReport("A", true)

	err := payroll.Unassign(&it)

	assert.ErrorIs(t, err, payroll.ErrAlreadyConfirmed)
	assert.Equal(t, formula.BatchID("A"), it.BatchID)
}

func TestAssign_DoesNotReprice(t *testing.T) {
	it := pricedReport("", false)
	before := it.CalculatedPrice

	require.NoError(t, payroll.Assign(&it, "B"))
	assert.True(t, before.Equal(it.CalculatedPrice))
}

func TestAssign_EmptyBatch(t *testing.T) {
	it := pricedReport("", false)

	err := payroll.Assign(&it, "")

	assert.ErrorIs(t, err, payroll.ErrEmptyBatchID)
	assert.True(t, payroll.IsClientError(err))
}

func TestCheckAssign_Answer(t *testing.T) {
	a := answer("a1", "t1", date(2025, time.June, 1), 1, "3")
	h := payroll.Answer{AnswerRecord: a}.Header()

	noop, err := payroll.CheckAssign(h, "B")
	assert.NoError(t, err)
	assert.False(t, noop)

	h.BatchID = "B"
	noop, err = payroll.CheckAssign(h, "B")
	assert.NoError(t, err)
	assert.True(t, noop)
}
