package engine

// schedulerTask performs a single iteration of the transmission scheduler.
//
// It parks until continuous mode is on, transmits one data line, and then
// pauses for the configured interval. Both waits return early on
// termination; an interval cut short by a stop command simply parks the
// next iteration. It returns false to stop the loop.
//
// A drained data source is not an error: the iteration warns and skips
// the write but still paces the interval.
func (e *Engine) schedulerTask() bool {
	if !e.mode.WaitActive(e.ctx) {
		return false
	}

	line, ok := e.src.NextLine()
	if !ok {
		e.metrics.incEmptyFeedCount()
		e.logger.Warn("engine: data source has no lines, transmission skipped")
	} else {
		e.writeData([]byte(line))
	}

	return e.mode.WaitInterval(e.ctx, e.cfg.interval)
}
