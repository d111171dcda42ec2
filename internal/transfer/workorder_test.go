package transfer

import "testing"

func TestWorkOrderClaimOnce(t *testing.T) {
	wo := NewUploadWorkOrder(0, 0, 1024, 0, true)

	if !wo.Claim() {
		t.Fatal("expected first claim to succeed")
	}
	if wo.Claim() {
		t.Fatal("expected second claim to fail")
	}
}

func TestWorkOrderRelease(t *testing.T) {
	wo := NewUploadWorkOrder(0, 0, 1024, 0, true)
	wo.Claim()
	wo.Release()

	status, _ := wo.Status()
	if status != OrderCreated {
		t.Fatalf("expected status created after release, got %s", status)
	}
	if !wo.Claim() {
		t.Fatal("expected claim to succeed again after release")
	}
}

func TestWorkOrderReleaseNoopWhenNotRunning(t *testing.T) {
	wo := NewUploadWorkOrder(0, 0, 1024, 0, true)
	wo.Claim()
	wo.MarkSuccess()
	wo.Release()

	status, _ := wo.Status()
	if status != OrderSuccess {
		t.Fatalf("expected release to be a no-op once terminal, got %s", status)
	}
}

func TestWorkOrderResetForRetry(t *testing.T) {
	wo := NewUploadWorkOrder(0, 0, 1024, 0, true)
	wo.Claim()
	wo.Progress.IncreaseDone(512)
	wo.ResetForRetry("connection reset")

	status, text := wo.Status()
	if status != OrderCreated {
		t.Fatalf("expected status created after retry reset, got %s", status)
	}
	if text != "connection reset" {
		t.Fatalf("expected status text to record reason, got %q", text)
	}
	if done, _ := wo.Progress.Snapshot(); done != 0 {
		t.Fatalf("expected progress reset to 0, got %d", done)
	}
	if hist := wo.History(); len(hist) != 1 || hist[0] != "connection reset" {
		t.Fatalf("expected history to record the retry reason, got %v", hist)
	}
}

func TestWorkOrderMarkFailureIsTerminal(t *testing.T) {
	wo := NewDownloadWorkOrder(1, "job-1/output/out.bin", "https://example/farm/job-1/output/out.bin", "/tmp/out", "out.bin")
	wo.Claim()
	wo.MarkFailure("404 not found")

	if !wo.IsTerminal() {
		t.Fatal("expected failure to be terminal")
	}
	status, text := wo.Status()
	if status != OrderFailure || text != "404 not found" {
		t.Fatalf("unexpected status %s %q", status, text)
	}
}
