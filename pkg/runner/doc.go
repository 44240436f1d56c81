/*
Package runner holds the decision sources that answer the pipeline's
interactive decision points, and the input normalizer that maps their raw
answers onto the decision vocabulary.

# Key Components

  - DecisionSource: the strategy interface used by the retry controller.
  - TextHandler: interactive terminal prompts.
  - JSONHandler: JSON Lines prompts for programmatic hosts.
  - ScriptedHandler: a fixed answer queue (HTTP requests, tests).
  - Normalize: width folding plus menu/alias resolution.

# Usage

	src := runner.NewTextHandler(os.Stdin, os.Stdout,
		runner.WithTextHandlerRenderer(tui.NewRenderer()),
	)
	raw, _ := src.Choose(ctx, domain.StageMenu(domain.StageAlpha))
	decision := runner.Normalize(raw, domain.StageMenu(domain.StageAlpha))
*/
package runner
