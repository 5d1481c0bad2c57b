package jobs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	domledger "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/jobs"
)

type fakeReconciler struct {
	checked []string
	all     int
	list    []domledger.Discrepancy
	err     error
}

func (f *fakeReconciler) Check(_ context.Context, productID string) (domledger.Discrepancy, error) {
	f.checked = append(f.checked, productID)
	return domledger.Discrepancy{ProductID: productID, BatchTotal: 3, LocationTotal: 3}, f.err
}

func (f *fakeReconciler) CheckAll(context.Context) ([]domledger.Discrepancy, error) {
	f.all++
	return f.list, f.err
}

type fakeLister struct {
	items []ledger.LowStockItem
	err   error
}

func (f fakeLister) ListLow(context.Context) ([]ledger.LowStockItem, error) { return f.items, f.err }

func TestReconcileJob_ProductoOCatalogo(t *testing.T) {
	rec := &fakeReconciler{list: []domledger.Discrepancy{{ProductID: "p1", BatchTotal: 5, LocationTotal: 3}}}
	job := jobs.NewReconcileJob(rec, zerolog.Nop())

	task, err := jobs.NewReconcileTask("p9")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"p9"}, rec.checked)

	task, err = jobs.NewReconcileTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, rec.all)
}

func TestReconcileJob_PayloadInvalidoNoSeReintenta(t *testing.T) {
	job := jobs.NewReconcileJob(&fakeReconciler{}, zerolog.Nop())
	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskReconcile, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReconcileJob_PropagaErrorParaReintento(t *testing.T) {
	boom := errors.New("db caída")
	job := jobs.NewReconcileJob(&fakeReconciler{err: boom}, zerolog.Nop())
	task, _ := jobs.NewReconcileTask("")
	assert.ErrorIs(t, job.Handle(context.Background(), task), boom)
}

func TestLowStockJob(t *testing.T) {
	job := jobs.NewLowStockJob(fakeLister{items: []ledger.LowStockItem{{ProductID: "p1", Total: 1, Threshold: 2}}}, zerolog.Nop())
	assert.NoError(t, job.Handle(context.Background(), jobs.NewLowStockScanTask()))

	boom := errors.New("timeout")
	job = jobs.NewLowStockJob(fakeLister{err: boom}, zerolog.Nop())
	assert.ErrorIs(t, job.Handle(context.Background(), jobs.NewLowStockScanTask()), boom)
}

func TestNewServeMux_IgnoraRegistrosIncompletos(t *testing.T) {
	called := false
	mux := jobs.NewServeMux([]jobs.TaskHandler{
		{Type: jobs.TaskLowStockScan, Handler: func(context.Context, *asynq.Task) error { called = true; return nil }},
		{Type: "", Handler: func(context.Context, *asynq.Task) error { return nil }},
		{Type: jobs.TaskReconcile},
	})
	require.NoError(t, mux.ProcessTask(context.Background(), jobs.NewLowStockScanTask()))
	assert.True(t, called)
}
