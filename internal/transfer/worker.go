package transfer

import (
	"context"
	"time"

	"github.com/octaspace/transfer-manager/internal/constants"
	"github.com/octaspace/transfer-manager/internal/logging"
)

// RunQueueWorker is the QueueWorker loop (SPEC_FULL.md §4.E):
//
//	until cancelled:
//	  wo <- queue.get_next_work_order()
//	  if wo is None: sleep 1s; continue
//	  execute(wo)
//	  transfer.update(wo)
//	  notify queue of success / retry
//
// self is this worker's handle, used to exclude it from NotifyRetry's
// ramp-down (a worker never kills itself) and to deregister on exit.
func RunQueueWorker(ctx context.Context, q *TransferQueue, self *queueWorkerHandle, logger *logging.Logger) {
	defer q.removeWorker(self)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tr, wo, ok := q.GetNextWorkOrder()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-time.After(constants.QueueIdlePollInterval):
			}
			continue
		}

		onRetry := func() { q.NotifyRetry(self) }
		err := tr.ExecuteWorkOrder(ctx, wo, onRetry)
		tr.Update(ctx, wo)

		if err == nil {
			q.NotifySuccess()
			continue
		}

		if logger != nil {
			logger.Warn().Str("transfer_id", tr.ID).Int("work_order", wo.Number).Err(err).Msg("work order ended in failure")
		}
	}
}
