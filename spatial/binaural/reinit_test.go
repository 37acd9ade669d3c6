package binaural

import "testing"

func TestReinitFlagLifecycle(t *testing.T) {
	var f reinitFlag

	if !f.clean() {
		t.Fatal("fresh flag should be clean")
	}
	if f.take() {
		t.Fatal("take without a request should fail")
	}

	f.request()
	if f.clean() {
		t.Fatal("requested flag should not be clean")
	}
	if !f.take() {
		t.Fatal("take should claim the pending request")
	}
	if f.take() {
		t.Fatal("second take should fail while in progress")
	}
	if f.clean() {
		t.Fatal("in-progress flag should not be clean")
	}

	f.finish()
	if !f.clean() {
		t.Fatal("finished flag should be clean")
	}
}

func TestReinitFlagRequestDuringRebuildWins(t *testing.T) {
	var f reinitFlag

	f.request()
	if !f.take() {
		t.Fatal("take should claim the pending request")
	}

	// A setter fires while the rebuild is running.
	f.request()

	f.finish()
	if f.clean() {
		t.Fatal("request made during the rebuild must survive the release")
	}
	if !f.take() {
		t.Fatal("surviving request should be claimable on the next block")
	}
	f.finish()
	if !f.clean() {
		t.Fatal("flag should settle clean after the second rebuild")
	}
}
