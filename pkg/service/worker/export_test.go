package worker

// Done is exported for testing
func (w *UpstreamProbeWorker) Done() <-chan struct{} {
	return w.doneCh
}
