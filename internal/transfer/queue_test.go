package transfer

import (
	"context"
	"testing"

	"github.com/octaspace/transfer-manager/internal/remote"
)

type fakeScanner struct {
	transfers []*Transfer
}

func (f *fakeScanner) TransfersByKind(kind TransferKind) []*Transfer {
	var out []*Transfer
	for _, tr := range f.transfers {
		if tr.Kind == kind {
			out = append(out, tr)
		}
	}
	return out
}

func TestGetNextWorkOrderSkipsNonRunningTransfers(t *testing.T) {
	tr := newTransfer("t-1", KindUpload, remote.UserData{}, nil, nil)
	wo := NewUploadWorkOrder(0, 0, 100, 0, true)
	tr.setOrders([]*WorkOrder{wo})
	// tr.Status() is "created", not "running" — GetNextWorkOrder must skip it.

	q := NewUploadQueue(&fakeScanner{transfers: []*Transfer{tr}}, nil)
	_, _, ok := q.GetNextWorkOrder()
	if ok {
		t.Fatal("expected no work order while transfer is not running")
	}
}

func TestGetNextWorkOrderClaimsOnce(t *testing.T) {
	tr := newTransfer("t-2", KindUpload, remote.UserData{}, nil, nil)
	_ = tr.Start()
	wo := NewUploadWorkOrder(0, 0, 100, 0, true)
	tr.setOrders([]*WorkOrder{wo})

	q := NewUploadQueue(&fakeScanner{transfers: []*Transfer{tr}}, nil)

	_, got, ok := q.GetNextWorkOrder()
	if !ok || got != wo {
		t.Fatal("expected to claim the only work order")
	}
	_, _, ok = q.GetNextWorkOrder()
	if ok {
		t.Fatal("expected the work order to already be claimed")
	}
}

func TestQueuePauseSuppressesWorkOrders(t *testing.T) {
	tr := newTransfer("t-3", KindUpload, remote.UserData{}, nil, nil)
	_ = tr.Start()
	wo := NewUploadWorkOrder(0, 0, 100, 0, true)
	tr.setOrders([]*WorkOrder{wo})

	q := NewUploadQueue(&fakeScanner{transfers: []*Transfer{tr}}, nil)
	q.Pause()

	_, _, ok := q.GetNextWorkOrder()
	if ok {
		t.Fatal("expected paused queue to yield no work orders")
	}

	q.Resume()
	_, _, ok = q.GetNextWorkOrder()
	if !ok {
		t.Fatal("expected resumed queue to yield the work order")
	}
}

func TestNotifySuccessRampsUpToMax(t *testing.T) {
	started := 0
	q := NewUploadQueue(&fakeScanner{}, func(ctx context.Context, q *TransferQueue, self *queueWorkerHandle) {
		started++
		<-ctx.Done()
	})
	q.Spawn() // 1 worker

	for i := 0; i < 10; i++ {
		q.NotifySuccess()
	}

	if got := q.WorkerCount(); got != 6 {
		t.Fatalf("expected worker count capped at 6, got %d", got)
	}
}

func TestNotifyRetryKillsOneOtherWorker(t *testing.T) {
	q := NewUploadQueue(&fakeScanner{}, func(ctx context.Context, q *TransferQueue, self *queueWorkerHandle) {
		<-ctx.Done()
	})
	q.Spawn()
	q.NotifySuccess()
	q.NotifySuccess()
	before := q.WorkerCount()

	h, _ := q.addWorker()
	q.NotifyRetry(h)

	after := q.WorkerCount()
	if after != before {
		t.Fatalf("expected worker count to return to %d after retry kill, got %d", before, after)
	}
}
