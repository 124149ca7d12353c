/*
Package cli provides command-line interface utilities for the ncod command.

The cli package includes report output helpers, batch progress reporting,
and common CLI helpers shared by the subcommands.

Report Output:

Commands with an --output flag validate it and render JSON reports through
this package:

	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}
	if format == cli.FormatJSON {
		return cli.WriteJSON(os.Stdout, sweepResults)
	}

Progress Reporting:

For long-running batches, such as converting a list of products, use the
batch progress reporter:

	progress := cli.NewBatchProgress(os.Stderr, len(products))
	for _, name := range products {
		progress.StartItem(name)
		err := process(name)
		progress.EndItem(err)
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
