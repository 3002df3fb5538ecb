// Package operations runs the gapminder pipeline end to end.
//
// A run loads and reshapes every source concurrently (bounded by
// Config.MaxParallel), aligns the reshaped tables into the canonical table
// and hands the result to each registered Sink. Progress is tracked per step
// in a RunState:
//
//	load:<indicator>, reshape:<indicator>, align, export
//
// A failing source never cancels its siblings. When any source fails the
// run stops before alignment and Run returns one SourceError per failure,
// joined with errors.Join. Every run, whatever its outcome, is passed to the
// registered RunRecorders.
//
// Example usage:
//
//	mgr, err := operations.NewManager(
//	    operations.WithConfig(cfg),
//	    operations.WithSinks(csvWriter, store),
//	    operations.WithRecorders(store),
//	)
//	report, err := mgr.Run(ctx, sources)
package operations
